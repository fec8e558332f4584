package auth

import (
	"context"
	"errors"
)

// Identity is what an external login tells us about a person.
// Subject is the provider's stable account id (Google "sub").
type Identity struct {
	Subject string
	Email   string // empty when the provider has no verified address
	Name    string
	Picture string
}

// ErrNoIdentityProvider is returned by ResolveIdentity when no federated
// login is configured.
var ErrNoIdentityProvider = errors.New("auth: no identity provider configured")

// Provider is everything the services need from authentication: issuing a
// session for a user, verifying one, and resolving an external credential
// into an Identity. Services depend on this interface, never on JWT or
// OAuth directly.
type Provider interface {
	IssueSession(userID string) (string, error)
	VerifySession(token string) (string, error)
	ResolveIdentity(ctx context.Context, credential string) (*Identity, error)
}

// SessionVerifier is the part of Provider the HTTP middleware uses.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

// compile-time check that *JWTProvider implements Provider
var _ Provider = (*JWTProvider)(nil)

// JWTProvider issues JWT sessions and, when Google is configured, resolves
// Google authorization codes.
type JWTProvider struct {
	tokens *TokenService
	google *GoogleProvider
}

// NewJWTProvider builds a provider. google may be nil.
func NewJWTProvider(tokens *TokenService, google *GoogleProvider) *JWTProvider {
	return &JWTProvider{tokens: tokens, google: google}
}

func (p *JWTProvider) IssueSession(userID string) (string, error) {
	return p.tokens.Generate(userID)
}

func (p *JWTProvider) VerifySession(token string) (string, error) {
	return p.tokens.Validate(token)
}

// ResolveIdentity treats credential as a Google authorization code.
func (p *JWTProvider) ResolveIdentity(ctx context.Context, credential string) (*Identity, error) {
	if p.google == nil {
		return nil, ErrNoIdentityProvider
	}
	return p.google.Exchange(ctx, credential)
}

// Google returns the configured Google provider, or nil.
func (p *JWTProvider) Google() *GoogleProvider {
	return p.google
}
