// Package repository declares the data-access interfaces the services depend on.
//
// One interface per entity, each method a single parameterized query. The
// concrete implementation lives in repository/sqlite; services only ever see
// these interfaces, so tests can swap in a wrapped or fake store.
package repository

import (
	"context"
	"errors"

	"github.com/AmanCrafts/CraftBook/internal/model"
)

// ErrDuplicate marks a write rejected by a uniqueness constraint.
// Implementations wrap the raw driver error with it; services decide what a
// duplicate means (409 for a profile, "already active" for a toggle).
var ErrDuplicate = errors.New("duplicate key")

type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter is a static filter for post listings. Zero fields are ignored.
type PostFilter struct {
	AuthorIDs           []string
	Tag                 string
	Medium              string
	TitleContains       string
	DescriptionContains string
	ProcessOnly         bool
}

// CursorOptions selects a page of the recency feed. Cursor is the id of the
// last post already seen; empty means start from the newest.
type CursorOptions struct {
	Limit  int
	Cursor string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalAuthID(ctx context.Context, externalID string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter) ([]model.Post, error)
	// Recent returns up to opts.Limit+1 posts, newest first, strictly after the cursor.
	Recent(ctx context.Context, opts CursorOptions) ([]model.Post, error)
	// Popular returns posts ordered by like count, and the total number of posts.
	Popular(ctx context.Context, opts ListOptions) ([]model.Post, int, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}

type LikeRepository interface {
	Create(ctx context.Context, like *model.Like) error
	Get(ctx context.Context, userID, postID string) (*model.Like, error)
	Delete(ctx context.Context, userID, postID string) error
	ListByPost(ctx context.Context, postID string) ([]model.Like, error)
	CountByPost(ctx context.Context, postID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	// DeleteOnPostsByAuthor removes every like (by anyone) on posts written by authorID.
	DeleteOnPostsByAuthor(ctx context.Context, authorID string) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	// DeleteOnPostsByAuthor removes every comment (by anyone) on posts written by authorID.
	DeleteOnPostsByAuthor(ctx context.Context, authorID string) (int64, error)
}

type FollowRepository interface {
	Create(ctx context.Context, follow *model.Follow) error
	Get(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	Delete(ctx context.Context, followerID, followingID string) error
	ListFollowers(ctx context.Context, userID string) ([]model.UserSummary, error)
	ListFollowing(ctx context.Context, userID string) ([]model.UserSummary, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	// DeleteByUser removes every follow where userID is the follower OR the followed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	GetByID(ctx context.Context, id string) (*model.Image, error)
	Delete(ctx context.Context, id string) error
}

// Store groups the per-entity repositories over one connection pool.
//
// InTx runs fn against a Store bound to a single transaction. If fn returns an
// error (or panics) the transaction is rolled back; otherwise it is committed.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Likes() LikeRepository
	Comments() CommentRepository
	Follows() FollowRepository
	Images() ImageRepository
	InTx(ctx context.Context, fn func(tx Store) error) error
}
