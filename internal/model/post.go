package model

import "time"

// Post is a piece of artwork shared by a user.
//
// LikeCount and CommentCount are never stored. They are computed by the query
// that loads the post (COUNT over likes/comments), so there is no counter that
// could drift out of sync with the rows it counts.
type Post struct {
	ID            string       `json:"id"`
	AuthorID      string       `json:"authorId"`
	Author        *UserSummary `json:"author,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	ImageURL      string       `json:"imageUrl"`
	Tags          []string     `json:"tags"` // order is preserved
	Medium        string       `json:"medium"`
	IsProcessPost bool         `json:"isProcessPost"`
	LikeCount     int          `json:"likeCount"`
	CommentCount  int          `json:"commentCount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// PostUpdate carries a partial post edit. Nil fields are left unchanged.
type PostUpdate struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	ImageURL      *string   `json:"imageUrl"`
	Tags          *[]string `json:"tags"`
	Medium        *string   `json:"medium"`
	IsProcessPost *bool     `json:"isProcessPost"`
}

// RecentPage is one page of the cursor-paginated recency feed.
// NextCursor is the id of the last post in Posts, or nil when the feed is exhausted.
type RecentPage struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// PopularPage is one page of the offset-paginated popularity feed.
type PopularPage struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	HasMore bool   `json:"hasMore"`
}
