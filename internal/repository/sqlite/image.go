package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// compile-time check that *ImageStore implements repository.ImageRepository
var _ repository.ImageRepository = (*ImageStore)(nil)

type ImageStore struct {
	q querier
}

func (s *ImageStore) Create(ctx context.Context, image *model.Image) error {
	image.ID = xid.New().String()
	image.CreatedAt = now()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO images (id, name, storage_key, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		image.ID, image.Name, image.Key, image.URL, toNanos(image.CreatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating image %s", image.Key)
	}
	return nil
}

func (s *ImageStore) GetByID(ctx context.Context, id string) (*model.Image, error) {
	var (
		img       model.Image
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, storage_key, url, created_at FROM images WHERE id = ?`, id,
	).Scan(&img.ID, &img.Name, &img.Key, &img.URL, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("image", id)
		}
		return nil, fmt.Errorf("sqlite: getting image %s: %w", id, err)
	}
	img.CreatedAt = fromNanos(createdAt)
	return &img, nil
}

func (s *ImageStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting image %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("image", id)
	}
	return nil
}
