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

// compile-time check that *LikeStore implements repository.LikeRepository
var _ repository.LikeRepository = (*LikeStore)(nil)

// LikeStore reads and writes the likes table. The UNIQUE (user_id, post_id)
// constraint is what makes a like idempotent under concurrent toggles.
type LikeStore struct {
	q querier
}

func (s *LikeStore) Create(ctx context.Context, like *model.Like) error {
	like.ID = xid.New().String()
	like.CreatedAt = now()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO likes (id, user_id, post_id, created_at) VALUES (?, ?, ?, ?)`,
		like.ID, like.UserID, like.PostID, toNanos(like.CreatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating like (user=%s, post=%s)", like.UserID, like.PostID)
	}
	return nil
}

func (s *LikeStore) Get(ctx context.Context, userID, postID string) (*model.Like, error) {
	var (
		l         model.Like
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, post_id, created_at FROM likes WHERE user_id = ? AND post_id = ?`,
		userID, postID,
	).Scan(&l.ID, &l.UserID, &l.PostID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("like", userID+"/"+postID)
		}
		return nil, fmt.Errorf("sqlite: getting like: %w", err)
	}
	l.CreatedAt = fromNanos(createdAt)
	return &l, nil
}

// Delete removes the (userID, postID) like, or reports not found if there was none.
func (s *LikeStore) Delete(ctx context.Context, userID, postID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting like: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("like", userID+"/"+postID)
	}
	return nil
}

// ListByPost returns the likes on a post with a summary of each liker,
// newest first.
func (s *LikeStore) ListByPost(ctx context.Context, postID string) ([]model.Like, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT l.id, l.user_id, l.post_id, l.created_at, u.name, u.profile_picture
		 FROM likes l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.post_id = ?
		 ORDER BY l.created_at DESC, l.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes on post %s: %w", postID, err)
	}
	defer rows.Close()

	likes := []model.Like{}
	for rows.Next() {
		var (
			l         model.Like
			u         model.UserSummary
			createdAt int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.PostID, &createdAt, &u.Name, &u.ProfilePicture); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		u.ID = l.UserID
		l.User = &u
		l.CreatedAt = fromNanos(createdAt)
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return likes, nil
}

func (s *LikeStore) CountByPost(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes on post %s: %w", postID, err)
	}
	return n, nil
}

func (s *LikeStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return s.deleteWhere(ctx, `user_id = ?`, userID)
}

func (s *LikeStore) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return s.deleteWhere(ctx, `post_id = ?`, postID)
}

func (s *LikeStore) DeleteOnPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.deleteWhere(ctx, `post_id IN (SELECT id FROM posts WHERE author_id = ?)`, authorID)
}

func (s *LikeStore) deleteWhere(ctx context.Context, cond string, arg any) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM likes WHERE `+cond, arg)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting likes where %s: %w", cond, err)
	}
	return rowsAffected(res)
}
