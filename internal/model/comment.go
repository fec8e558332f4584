package model

import "time"

// Comment is a text reply on a post. Only AuthorID may edit or delete it.
type Comment struct {
	ID        string       `json:"id"`
	AuthorID  string       `json:"authorId"`
	PostID    string       `json:"postId"`
	Author    *UserSummary `json:"author,omitempty"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
