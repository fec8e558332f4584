package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

type UserService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// NewProfile is the input for creating a user from a federated login.
type NewProfile struct {
	ExternalAuthID string
	Email          string
	Name           string
	Bio            string
	ProfilePicture string
	Medium         string
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id, err := requireID("id", id)
	if err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) GetByExternalAuthID(ctx context.Context, externalID string) (*model.User, error) {
	externalID, err := requireID("googleId", externalID)
	if err != nil {
		return nil, err
	}
	return s.store.Users().GetByExternalAuthID(ctx, externalID)
}

// Create stores a profile for someone who signed in elsewhere. Email and name
// are required; a taken email or external id is a Conflict.
func (s *UserService) Create(ctx context.Context, p NewProfile) (*model.User, error) {
	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	user := &model.User{
		Email:          email,
		Name:           name,
		Bio:            p.Bio,
		ProfilePicture: p.ProfilePicture,
		Medium:         p.Medium,
	}
	if ext := strings.TrimSpace(p.ExternalAuthID); ext != "" {
		user.ExternalAuthID = &ext
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user", "that email or google id")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.String("userID", user.ID))
	return user, nil
}

// Update applies a partial profile edit. Only the user themself may edit.
func (s *UserService) Update(ctx context.Context, actorID, id string, upd model.UserUpdate) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != actorID {
		return nil, apperror.Forbidden("you can only update your own profile")
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		user.Name = name
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		user.ProfilePicture = *upd.ProfilePicture
	}
	if upd.Medium != nil {
		user.Medium = *upd.Medium
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// Delete removes the actor's own account and everything hanging off it.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID != id {
		return apperror.Forbidden("you can only delete your own account")
	}
	return s.DeleteCascade(ctx, id)
}

// DeleteCascade removes a user and every row that references them, in one
// transaction. The store has no ON DELETE CASCADE, so the order matters:
// each step clears rows that would otherwise block a later one.
//
//  1. likes the user gave
//  2. comments the user wrote
//  3. likes (by anyone) on the user's posts
//  4. comments (by anyone) on the user's posts
//  5. the user's posts
//  6. follows in either direction
//  7. the user
//
// A missing user is NotFound. Any other failure rolls everything back and is
// reported as TransactionFailed; the cause is logged, never returned.
func (s *UserService) DeleteCascade(ctx context.Context, userID string) error {
	userID, err := requireID("id", userID)
	if err != nil {
		return err
	}
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Likes().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("deleting likes by user: %w", err)
		}
		if _, err := tx.Comments().DeleteByAuthor(ctx, userID); err != nil {
			return fmt.Errorf("deleting comments by user: %w", err)
		}
		if _, err := tx.Likes().DeleteOnPostsByAuthor(ctx, userID); err != nil {
			return fmt.Errorf("deleting likes on user's posts: %w", err)
		}
		if _, err := tx.Comments().DeleteOnPostsByAuthor(ctx, userID); err != nil {
			return fmt.Errorf("deleting comments on user's posts: %w", err)
		}
		if _, err := tx.Posts().DeleteByAuthor(ctx, userID); err != nil {
			return fmt.Errorf("deleting posts: %w", err)
		}
		if _, err := tx.Follows().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("deleting follows: %w", err)
		}
		if err := tx.Users().Delete(ctx, userID); err != nil {
			return fmt.Errorf("deleting user row: %w", err)
		}
		return nil
	})
	if err != nil {
		// the row vanished between the lookup and the commit
		if isNotFound(err) {
			return err
		}
		s.logger.Error("user deletion rolled back",
			slog.String("userID", userID),
			errAttr(err),
		)
		return apperror.TransactionFailed("user deletion")
	}

	s.logger.Info("user deleted", slog.String("userID", userID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
