package model

import "time"

// Like records that UserID liked PostID. At most one exists per (UserID, PostID).
type Like struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	PostID    string       `json:"postId"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
