package model

import "time"

// Follow records that FollowerID follows FollowingID.
// FollowerID never equals FollowingID, and each pair exists at most once.
type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"followerId"`
	FollowingID string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FollowStats holds follower/following counts, computed at read time.
type FollowStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}
