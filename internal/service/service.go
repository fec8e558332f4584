// Package service holds CraftBook's business rules.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)      → parses requests, writes responses
//	Service (business)  → validates, checks ownership, orchestrates
//	Repository (data)   → one parameterized query per method
//
// Services take primitives and model types, never *http.Request, and return
// apperror values the handlers translate into status codes. They depend on
// repository.Store (an interface) so tests can run them against a real
// in-memory SQLite store or a wrapper that injects failures.
//
// Services keep no mutable state between calls. Every cross-row rule
// (one like per user and post, all-or-nothing account deletion) is left to
// the store's constraints and transactions.
package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
)

// Page size limits shared by the feeds.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// clampLimit applies the default for non-positive values and caps the rest.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// requireID trims id and rejects an empty one as a validation error on field.
func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return id, nil
}

// isNotFound is shorthand used where NotFound is an expected outcome.
func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

func errAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
