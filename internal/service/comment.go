package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

type CommentService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCommentService(store repository.Store, logger *slog.Logger) *CommentService {
	return &CommentService{store: store, logger: logger}
}

func (s *CommentService) Create(ctx context.Context, authorID, postID, content string) (*model.Comment, error) {
	authorID, err := requireID("authorId", authorID)
	if err != nil {
		return nil, err
	}
	content, err = commentContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Posts().GetByID(ctx, postID); err != nil {
		return nil, err
	}
	author, err := s.store.Users().GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{AuthorID: authorID, PostID: postID, Content: content}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	comment.Author = &model.UserSummary{
		ID:             author.ID,
		Name:           author.Name,
		ProfilePicture: author.ProfilePicture,
	}
	return comment, nil
}

// ListByPost returns the post's comments, newest first. The post must exist.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	if _, err := s.store.Posts().GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// Update replaces a comment's content.
//
// Checks run in a fixed order: the comment must exist (NotFound), the actor
// must be its author (Forbidden), then the trimmed content must be non-empty.
// A non-author is refused even when the new content would also be invalid.
func (s *CommentService) Update(ctx context.Context, commentID, actorID, content string) (*model.Comment, error) {
	comment, err := s.authorize(ctx, commentID, actorID, "edit")
	if err != nil {
		return nil, err
	}
	content, err = commentContent(content)
	if err != nil {
		return nil, err
	}

	if err := s.store.Comments().UpdateContent(ctx, comment.ID, content); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	return s.store.Comments().GetByID(ctx, comment.ID)
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID string) error {
	comment, err := s.authorize(ctx, commentID, actorID, "delete")
	if err != nil {
		return err
	}
	if err := s.store.Comments().Delete(ctx, comment.ID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	s.logger.Info("comment deleted",
		slog.String("commentID", comment.ID),
		slog.String("postID", comment.PostID),
	)
	return nil
}

func (s *CommentService) authorize(ctx context.Context, commentID, actorID, verb string) (*model.Comment, error) {
	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if actorID == "" || comment.AuthorID != actorID {
		return nil, apperror.Forbidden(fmt.Sprintf("you can only %s your own comments", verb))
	}
	return comment, nil
}

func commentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.ValidationFailed("content", "comment content cannot be empty")
	}
	return content, nil
}
