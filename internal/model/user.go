// Package model defines the data structures used throughout the application.
// Each struct mirrors one table; JSON tags are the API field names.
package model

import "time"

// User represents an artist's account.
//
// A user signs up either with email + password (PasswordHash set) or through
// a federated login (ExternalAuthID set, PasswordHash nil). Both are pointers
// because either may legitimately be absent, and the database needs to tell
// "no value" (NULL) apart from an empty string for the UNIQUE index on
// external_auth_id.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. Tagging it with "-" means encoding/json
// skips it entirely, so no handler can leak it by accident.
type User struct {
	ID             string    `json:"id"`
	ExternalAuthID *string   `json:"googleId,omitempty"` // federated login subject (Google "sub")
	Email          string    `json:"email"`
	PasswordHash   *string   `json:"-"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	Medium         string    `json:"medium"` // free text, e.g. "watercolour"
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Summary returns the public subset of the user embedded in posts, likes,
// comments and follow lists.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Medium:         u.Medium,
	}
}

// UserSummary is the short form of a user shown next to content.
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio,omitempty"`
	Medium         string `json:"medium,omitempty"`
}

// UserUpdate carries a partial profile edit. Nil fields are left unchanged.
type UserUpdate struct {
	Name           *string `json:"name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
	Medium         *string `json:"medium"`
}
