package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt hashes embed their own salt and cost:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so the whole string goes into users.password_hash and nothing else is stored.

const (
	// defaultCost takes roughly 250ms per hash on current server hardware.
	defaultCost = 12

	MinPasswordLength = 6
	// MaxPasswordBytes is bcrypt's input limit. Longer input would be
	// silently truncated, so it is rejected instead.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	ErrPasswordMismatch = errors.New("auth: invalid password")
)

// PasswordService hashes and checks passwords.
type PasswordService struct {
	cost int
}

// PasswordOption configures a PasswordService.
type PasswordOption func(*PasswordService)

// WithCost sets the bcrypt cost. Values outside bcrypt's accepted range are
// ignored and the default stays in place.
func WithCost(cost int) PasswordOption {
	return func(p *PasswordService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

func NewPasswordService(opts ...PasswordOption) *PasswordService {
	p := &PasswordService{cost: defaultCost}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckStrength applies the length rules new passwords must meet.
// Length is counted in runes for the minimum and bytes for the maximum.
func CheckStrength(plaintext string) error {
	if len([]rune(plaintext)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(plaintext) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash returns the bcrypt hash of plaintext. It only enforces the bcrypt
// byte limit; call CheckStrength first for new passwords.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch when
// it does not. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
