package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. modernc returns extended result codes; the string check covers
// a driver configured to return only the primary code.
func isUniqueViolation(err error) bool {
	var sErr *msqlite.Error
	if !errors.As(err, &sErr) {
		return false
	}
	switch sErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sErr.Error(), "UNIQUE")
	}
	return false
}

// wrapWrite wraps a failed INSERT/UPDATE, tagging uniqueness violations with
// repository.ErrDuplicate while keeping the raw driver error in the chain.
func wrapWrite(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("sqlite: %s: %w: %w", msg, repository.ErrDuplicate, err)
	}
	return fmt.Errorf("sqlite: %s: %w", msg, err)
}
