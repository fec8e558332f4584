package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
	"github.com/AmanCrafts/CraftBook/internal/storage"
)

// maxNameLen bounds the sanitized filename part of a blob key.
const maxNameLen = 100

type UploadService struct {
	store  repository.Store
	blobs  storage.BlobStore
	logger *slog.Logger
}

func NewUploadService(store repository.Store, blobs storage.BlobStore, logger *slog.Logger) *UploadService {
	return &UploadService{store: store, blobs: blobs, logger: logger}
}

// Upload stores the bytes under a fresh key and records an Image row.
//
// contentType must already have been checked by the caller against the
// bytes themselves; here it only has to name an image type.
//
// The blob write and the row insert are separate calls. If the insert fails
// the blob stays behind; that orphan is logged with its key and left alone.
func (s *UploadService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*model.Image, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.ValidationFailed("image", "only image files are allowed")
	}

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	key := objectKey(name)

	url, err := s.blobs.Put(ctx, key, r, contentType)
	if err != nil {
		s.logger.Error("blob upload failed", slog.String("key", key), errAttr(err))
		return nil, apperror.UpstreamStorage("upload", err)
	}

	img := &model.Image{Name: name, Key: key, URL: url}
	if err := s.store.Images().Create(ctx, img); err != nil {
		s.logger.Warn("orphaned blob: image row insert failed",
			slog.String("key", key),
			errAttr(err),
		)
		return nil, fmt.Errorf("recording image: %w", err)
	}

	s.logger.Info("image uploaded",
		slog.String("imageID", img.ID),
		slog.String("key", key),
	)
	return img, nil
}

// Delete removes the blob first, then the row. If the blob delete fails the
// row is kept so the delete can be retried.
func (s *UploadService) Delete(ctx context.Context, id string) error {
	id, err := requireID("id", id)
	if err != nil {
		return err
	}
	img, err := s.store.Images().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, img.Key); err != nil {
		s.logger.Error("blob delete failed", slog.String("key", img.Key), errAttr(err))
		return apperror.UpstreamStorage("delete", err)
	}
	if err := s.store.Images().Delete(ctx, img.ID); err != nil {
		return fmt.Errorf("deleting image row: %w", err)
	}

	s.logger.Info("image deleted", slog.String("imageID", img.ID))
	return nil
}

// objectKey is "<uuid>-<name>" with every byte outside [A-Za-z0-9._-]
// replaced by '_'. An empty name yields "<uuid>-image".
func objectKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	clean := b.String()
	for strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", ".")
	}
	clean = strings.Trim(clean, ".")
	if clean == "" {
		clean = "image"
	}
	if len(clean) > maxNameLen {
		clean = clean[len(clean)-maxNameLen:]
	}
	return uuid.NewString() + "-" + clean
}
