// Package storage holds uploaded image bytes outside the database.
//
// BLOB vs ROW:
// The database only records an Image row (name, key, public URL). The bytes
// live in a BlobStore. The two writes are independent calls with no shared
// transaction, so a failure between them can leave a blob with no row. The
// upload service logs that case instead of trying to clean it up.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// BlobStore puts and removes objects by key.
//
// Put returns the public URL the object can be fetched from. Delete of a key
// that does not exist is not an error.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for keys that could escape the bucket or directory.
var ErrInvalidKey = errors.New("storage: invalid object key")

// validateKey accepts flat object names only: no separators, no dot segments.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
