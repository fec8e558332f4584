package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

type PostService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewPostService(store repository.Store, logger *slog.Logger) *PostService {
	return &PostService{store: store, logger: logger}
}

// NewPost is the input for Create. AuthorID comes from the session, never the body.
type NewPost struct {
	Title         string
	Description   string
	ImageURL      string
	Tags          []string
	Medium        string
	IsProcessPost bool
}

func (s *PostService) Create(ctx context.Context, authorID string, in NewPost) (*model.Post, error) {
	authorID, err := requireID("authorId", authorID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, apperror.ValidationFailed("imageUrl", "imageUrl is required")
	}

	author, err := s.store.Users().GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID:      author.ID,
		Title:         title,
		Description:   in.Description,
		ImageURL:      imageURL,
		Tags:          cleanTags(in.Tags),
		Medium:        in.Medium,
		IsProcessPost: in.IsProcessPost,
	}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	post.Author = &model.UserSummary{
		ID:             author.ID,
		Name:           author.Name,
		ProfilePicture: author.ProfilePicture,
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("authorID", post.AuthorID),
	)
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().GetByID(ctx, id)
}

// List returns posts matching filter, newest first.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter) ([]model.Post, error) {
	posts, err := s.store.Posts().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// All returns every post, newest first.
func (s *PostService) All(ctx context.Context) ([]model.Post, error) {
	return s.List(ctx, repository.PostFilter{})
}

func (s *PostService) ByAuthor(ctx context.Context, userID string) ([]model.Post, error) {
	userID, err := requireID("userId", userID)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, repository.PostFilter{AuthorIDs: []string{userID}})
}

func (s *PostService) ByTag(ctx context.Context, tag string) ([]model.Post, error) {
	return s.ByTagAndMedium(ctx, tag, "")
}

func (s *PostService) ByMedium(ctx context.Context, medium string) ([]model.Post, error) {
	medium = strings.TrimSpace(medium)
	if medium == "" {
		return nil, apperror.ValidationFailed("medium", "medium is required")
	}
	return s.List(ctx, repository.PostFilter{Medium: medium})
}

// ByTagAndMedium filters by tag and, when medium is non-empty, by medium too.
func (s *PostService) ByTagAndMedium(ctx context.Context, tag, medium string) ([]model.Post, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, apperror.ValidationFailed("tag", "tag is required")
	}
	return s.List(ctx, repository.PostFilter{Tag: tag, Medium: strings.TrimSpace(medium)})
}

func (s *PostService) SearchTitle(ctx context.Context, q string) ([]model.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.ValidationFailed("title", "search text is required")
	}
	return s.List(ctx, repository.PostFilter{TitleContains: q})
}

func (s *PostService) SearchDescription(ctx context.Context, q string) ([]model.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.ValidationFailed("description", "search text is required")
	}
	return s.List(ctx, repository.PostFilter{DescriptionContains: q})
}

func (s *PostService) ProcessPosts(ctx context.Context) ([]model.Post, error) {
	return s.List(ctx, repository.PostFilter{ProcessOnly: true})
}

// Following returns posts written by anyone userID follows.
func (s *PostService) Following(ctx context.Context, userID string) ([]model.Post, error) {
	ids, err := s.store.Follows().FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing following ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return s.List(ctx, repository.PostFilter{AuthorIDs: ids})
}

// Recent returns one page of the recency feed.
//
// The store hands back limit+1 rows; the extra one only signals that another
// page exists and is dropped. NextCursor is the id of the last post returned.
// An unknown cursor is a validation error rather than an empty page.
func (s *PostService) Recent(ctx context.Context, limit int, cursor string) (*model.RecentPage, error) {
	limit = clampLimit(limit)

	posts, err := s.store.Posts().Recent(ctx, repository.CursorOptions{
		Limit:  limit,
		Cursor: strings.TrimSpace(cursor),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.ValidationFailed("cursor", "cursor does not match any post")
		}
		return nil, fmt.Errorf("loading recent posts: %w", err)
	}

	page := &model.RecentPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		page.HasMore = true
	}
	if page.Posts == nil {
		page.Posts = []model.Post{}
	}
	if page.HasMore {
		next := page.Posts[len(page.Posts)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

// Popular returns one page of posts ordered by like count. Pages start at 1.
func (s *PostService) Popular(ctx context.Context, page, limit int) (*model.PopularPage, error) {
	limit = clampLimit(limit)
	if page < 1 {
		page = 1
	}
	// no table holds math.MaxInt rows, so a page past that is simply empty
	if page-1 > math.MaxInt/limit {
		return &model.PopularPage{Posts: []model.Post{}, Page: page}, nil
	}
	skip := (page - 1) * limit

	posts, total, err := s.store.Posts().Popular(ctx, repository.ListOptions{Limit: limit, Offset: skip})
	if err != nil {
		return nil, fmt.Errorf("loading popular posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return &model.PopularPage{
		Posts:   posts,
		Page:    page,
		HasMore: skip+len(posts) < total,
	}, nil
}

// Update applies a partial edit. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actorID, id string, upd model.PostUpdate) (*model.Post, error) {
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, apperror.Forbidden("you can only edit your own posts")
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		post.Title = title
	}
	if upd.ImageURL != nil {
		imageURL := strings.TrimSpace(*upd.ImageURL)
		if imageURL == "" {
			return nil, apperror.ValidationFailed("imageUrl", "imageUrl cannot be empty")
		}
		post.ImageURL = imageURL
	}
	if upd.Description != nil {
		post.Description = *upd.Description
	}
	if upd.Tags != nil {
		post.Tags = cleanTags(*upd.Tags)
	}
	if upd.Medium != nil {
		post.Medium = *upd.Medium
	}
	if upd.IsProcessPost != nil {
		post.IsProcessPost = *upd.IsProcessPost
	}

	if err := s.store.Posts().Update(ctx, post); err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}
	return post, nil
}

// Delete removes a post with its likes and comments. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, actorID, id string) error {
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperror.Forbidden("you can only delete your own posts")
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Likes().DeleteByPost(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Comments().DeleteByPost(ctx, id); err != nil {
			return err
		}
		return tx.Posts().Delete(ctx, id)
	})
	if err != nil {
		// the row vanished between the lookup and the commit
		if isNotFound(err) {
			return err
		}
		s.logger.Error("post deletion rolled back",
			slog.String("postID", id),
			errAttr(err),
		)
		return apperror.TransactionFailed("post deletion")
	}

	s.logger.Info("post deleted", slog.String("postID", id))
	return nil
}

// cleanTags trims each tag and drops empty ones, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
