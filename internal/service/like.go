package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

type LikeService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewLikeService(store repository.Store, logger *slog.Logger) *LikeService {
	return &LikeService{store: store, logger: logger}
}

// Toggle likes postID for userID, or unlikes it if already liked.
// An unknown post is NotFound.
func (s *LikeService) Toggle(ctx context.Context, userID, postID string) (ToggleResult, error) {
	userID, err := requireID("userId", userID)
	if err != nil {
		return ToggleResult{}, err
	}
	postID, err = requireID("postId", postID)
	if err != nil {
		return ToggleResult{}, err
	}
	if _, err := s.store.Posts().GetByID(ctx, postID); err != nil {
		return ToggleResult{}, err
	}

	likes := s.store.Likes()
	res, err := toggle(ctx, relation{
		get: func(ctx context.Context) error {
			_, err := likes.Get(ctx, userID, postID)
			return err
		},
		create: func(ctx context.Context) error {
			return likes.Create(ctx, &model.Like{UserID: userID, PostID: postID})
		},
		remove: func(ctx context.Context) error {
			return likes.Delete(ctx, userID, postID)
		},
	})
	if err != nil {
		s.logger.Error("failed to toggle like",
			slog.String("userID", userID),
			slog.String("postID", postID),
			errAttr(err),
		)
		return ToggleResult{}, fmt.Errorf("toggling like: %w", err)
	}

	s.logger.Info("like toggled",
		slog.String("userID", userID),
		slog.String("postID", postID),
		slog.String("action", res.Action),
	)
	return res, nil
}

// ListByPost returns the post's likes with liker summaries. The post must exist.
func (s *LikeService) ListByPost(ctx context.Context, postID string) ([]model.Like, error) {
	if _, err := s.store.Posts().GetByID(ctx, postID); err != nil {
		return nil, err
	}
	likes, err := s.store.Likes().ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing likes: %w", err)
	}
	return likes, nil
}

func (s *LikeService) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	_, err := s.store.Likes().Get(ctx, userID, postID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking like: %w", err)
}
