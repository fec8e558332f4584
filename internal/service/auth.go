package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/auth"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// errBadCredentials is the one message for every failed login, so a caller
// cannot tell a wrong password from an unknown email.
const errBadCredentials = "invalid email or password"

// AuthService sits between the auth handlers and the user store:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ auth.Provider (sessions, Google)
//
// It never sets cookies or reads requests; that is the handler's job.
type AuthService struct {
	store     repository.Store
	provider  auth.Provider
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	provider auth.Provider,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		provider:  provider,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user with a freshly issued session token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Registration is the input for Register.
type Registration struct {
	Email    string
	Password string
	Name     string
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, in Registration) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if err := auth.CheckStrength(in.Password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Email: email, Name: name, PasswordHash: &hash}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user", "that email")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return s.session(user)
}

// Login checks email and password. Every failure, including an account that
// only ever signed in with Google, is the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized(errBadCredentials)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.HasPassword() {
		return nil, apperror.Unauthorized(errBadCredentials)
	}
	if err := s.passwords.Verify(*user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(errBadCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.session(user)
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	userID, err := requireID("userId", userID)
	if err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, userID)
}

// ChangeEmail moves the account to newEmail after re-checking the password.
func (s *AuthService) ChangeEmail(ctx context.Context, userID, newEmail, currentPassword string) (*model.User, error) {
	email := normalizeEmail(newEmail)
	if email == "" {
		return nil, apperror.ValidationFailed("newEmail", "new email is required")
	}

	user, err := s.reauthenticate(ctx, userID, currentPassword)
	if err != nil {
		return nil, err
	}
	if user.Email == email {
		return user, nil
	}

	user.Email = email
	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user", "that email")
		}
		return nil, fmt.Errorf("updating email: %w", err)
	}

	s.logger.Info("email changed", slog.String("userID", user.ID))
	return user, nil
}

// ChangePassword replaces the password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.CheckStrength(newPassword); err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}

	user, err := s.reauthenticate(ctx, userID, currentPassword)
	if err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = &hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", user.ID))
	return nil
}

// LoginWithGoogle exchanges an authorization code and signs the person in.
//
// The account is found by Google subject first. Failing that, an existing
// account with the same verified email is linked to the subject. Otherwise
// a new account is created from the Google profile.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}

	id, err := s.provider.ResolveIdentity(ctx, code)
	if err != nil {
		if errors.Is(err, auth.ErrNoIdentityProvider) {
			return nil, apperror.InvalidOperation("google sign-in is not configured")
		}
		s.logger.Warn("google code exchange failed", errAttr(err))
		return nil, apperror.Unauthorized("google sign-in failed")
	}

	user, err := s.resolveGoogleUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *AuthService) resolveGoogleUser(ctx context.Context, id *auth.Identity) (*model.User, error) {
	users := s.store.Users()

	user, err := users.GetByExternalAuthID(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("looking up google user: %w", err)
	}

	if id.Email == "" {
		return nil, apperror.Unauthorized("google account has no verified email")
	}
	email := normalizeEmail(id.Email)

	user, err = users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.ExternalAuthID != nil && *user.ExternalAuthID != id.Subject {
			return nil, apperror.Conflict("user", "that email linked to another google account")
		}
		subject := id.Subject
		user.ExternalAuthID = &subject
		if user.ProfilePicture == "" {
			user.ProfilePicture = id.Picture
		}
		if err := users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("linking google account: %w", err)
		}
		s.logger.Info("google account linked", slog.String("userID", user.ID))
		return user, nil

	case !isNotFound(err):
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = email[:strings.IndexByte(email+"@", '@')]
	}
	subject := id.Subject
	user = &model.User{
		ExternalAuthID: &subject,
		Email:          email,
		Name:           name,
		ProfilePicture: id.Picture,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user", "that email or google id")
		}
		return nil, fmt.Errorf("creating google user: %w", err)
	}

	s.logger.Info("user registered via google", slog.String("userID", user.ID))
	return user, nil
}

// reauthenticate loads userID and checks password against it. A wrong
// password is Unauthorized; an account without a password cannot pass.
func (s *AuthService) reauthenticate(ctx context.Context, userID, password string) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, apperror.InvalidOperation("account has no password; sign in with google")
	}
	if err := s.passwords.Verify(*user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("current password is incorrect")
	}
	return user, nil
}

func (s *AuthService) session(user *model.User) (*AuthResult, error) {
	token, err := s.provider.IssueSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
