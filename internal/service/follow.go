package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// MaxBatchCheck caps how many ids one follow check-batch request may ask about.
const MaxBatchCheck = 100

type FollowService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewFollowService(store repository.Store, logger *slog.Logger) *FollowService {
	return &FollowService{store: store, logger: logger}
}

// Toggle makes followerID follow targetID, or stop following if it already does.
// Following yourself is an InvalidOperation; an unknown target is NotFound.
func (s *FollowService) Toggle(ctx context.Context, followerID, targetID string) (ToggleResult, error) {
	followerID, err := requireID("followerId", followerID)
	if err != nil {
		return ToggleResult{}, err
	}
	targetID, err = requireID("userId", targetID)
	if err != nil {
		return ToggleResult{}, err
	}
	if followerID == targetID {
		return ToggleResult{}, apperror.InvalidOperation("you cannot follow yourself")
	}
	if _, err := s.store.Users().GetByID(ctx, targetID); err != nil {
		return ToggleResult{}, err
	}

	follows := s.store.Follows()
	res, err := toggle(ctx, relation{
		get: func(ctx context.Context) error {
			_, err := follows.Get(ctx, followerID, targetID)
			return err
		},
		create: func(ctx context.Context) error {
			return follows.Create(ctx, &model.Follow{FollowerID: followerID, FollowingID: targetID})
		},
		remove: func(ctx context.Context) error {
			return follows.Delete(ctx, followerID, targetID)
		},
	})
	if err != nil {
		s.logger.Error("failed to toggle follow",
			slog.String("followerID", followerID),
			slog.String("followingID", targetID),
			errAttr(err),
		)
		return ToggleResult{}, fmt.Errorf("toggling follow: %w", err)
	}

	s.logger.Info("follow toggled",
		slog.String("followerID", followerID),
		slog.String("followingID", targetID),
		slog.String("action", res.Action),
	)
	return res, nil
}

// IsFollowing reports whether followerID follows userID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, userID string) (bool, error) {
	_, err := s.store.Follows().Get(ctx, followerID, userID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking follow: %w", err)
}

// CheckBatch answers IsFollowing for many users at once, keyed by user id.
// It reads the follower's whole following set once rather than querying per id.
func (s *FollowService) CheckBatch(ctx context.Context, followerID string, userIDs []string) (map[string]bool, error) {
	followerID, err := requireID("followerId", followerID)
	if err != nil {
		return nil, err
	}
	if len(userIDs) > MaxBatchCheck {
		return nil, apperror.ValidationFailed("userIds",
			fmt.Sprintf("at most %d user ids can be checked at once", MaxBatchCheck))
	}

	following, err := s.store.Follows().FollowingIDs(ctx, followerID)
	if err != nil {
		return nil, fmt.Errorf("listing following ids: %w", err)
	}
	set := make(map[string]struct{}, len(following))
	for _, id := range following {
		set[id] = struct{}{}
	}

	result := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		_, ok := set[id]
		result[id] = ok
	}
	return result, nil
}

// Followers lists who follows userID. The user must exist.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]model.UserSummary, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.store.Follows().ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing followers: %w", err)
	}
	return users, nil
}

// Following lists who userID follows. The user must exist.
func (s *FollowService) Following(ctx context.Context, userID string) ([]model.UserSummary, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.store.Follows().ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing following: %w", err)
	}
	return users, nil
}

// Stats counts both directions at read time.
func (s *FollowService) Stats(ctx context.Context, userID string) (model.FollowStats, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return model.FollowStats{}, err
	}

	followers, err := s.store.Follows().CountFollowers(ctx, userID)
	if err != nil {
		return model.FollowStats{}, fmt.Errorf("counting followers: %w", err)
	}
	following, err := s.store.Follows().CountFollowing(ctx, userID)
	if err != nil {
		return model.FollowStats{}, fmt.Errorf("counting following: %w", err)
	}
	return model.FollowStats{Followers: followers, Following: following}, nil
}
