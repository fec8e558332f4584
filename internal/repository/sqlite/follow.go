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

// compile-time check that *FollowStore implements repository.FollowRepository
var _ repository.FollowRepository = (*FollowStore)(nil)

// FollowStore reads and writes the follows table.
type FollowStore struct {
	q querier
}

func (s *FollowStore) Create(ctx context.Context, follow *model.Follow) error {
	follow.ID = xid.New().String()
	follow.CreatedAt = now()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO follows (id, follower_id, following_id, created_at) VALUES (?, ?, ?, ?)`,
		follow.ID, follow.FollowerID, follow.FollowingID, toNanos(follow.CreatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating follow (%s -> %s)", follow.FollowerID, follow.FollowingID)
	}
	return nil
}

func (s *FollowStore) Get(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	var (
		f         model.Follow
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, follower_id, following_id, created_at
		 FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	).Scan(&f.ID, &f.FollowerID, &f.FollowingID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("follow", followerID+"->"+followingID)
		}
		return nil, fmt.Errorf("sqlite: getting follow: %w", err)
	}
	f.CreatedAt = fromNanos(createdAt)
	return &f, nil
}

func (s *FollowStore) Delete(ctx context.Context, followerID, followingID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting follow: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("follow", followerID+"->"+followingID)
	}
	return nil
}

// ListFollowers returns the users following userID, most recent follow first.
func (s *FollowStore) ListFollowers(ctx context.Context, userID string) ([]model.UserSummary, error) {
	return s.listUsers(ctx,
		`SELECT u.id, u.name, u.profile_picture, u.bio, u.medium
		 FROM follows f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.following_id = ?
		 ORDER BY f.created_at DESC, f.id DESC`, userID)
}

// ListFollowing returns the users userID follows, most recent follow first.
func (s *FollowStore) ListFollowing(ctx context.Context, userID string) ([]model.UserSummary, error) {
	return s.listUsers(ctx,
		`SELECT u.id, u.name, u.profile_picture, u.bio, u.medium
		 FROM follows f
		 JOIN users u ON u.id = f.following_id
		 WHERE f.follower_id = ?
		 ORDER BY f.created_at DESC, f.id DESC`, userID)
}

func (s *FollowStore) listUsers(ctx context.Context, query, userID string) ([]model.UserSummary, error) {
	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follows of %s: %w", userID, err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.ProfilePicture, &u.Bio, &u.Medium); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return users, nil
}

// FollowingIDs returns just the ids userID follows; the following feed uses
// it as an author filter.
func (s *FollowStore) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing following ids of %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning following id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating following ids: %w", err)
	}
	return ids, nil
}

func (s *FollowStore) CountFollowers(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `following_id = ?`, userID)
}

func (s *FollowStore) CountFollowing(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `follower_id = ?`, userID)
}

func (s *FollowStore) count(ctx context.Context, cond, userID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM follows WHERE `+cond, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting follows of %s: %w", userID, err)
	}
	return n, nil
}

func (s *FollowStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? OR following_id = ?`, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting follows of %s: %w", userID, err)
	}
	return rowsAffected(res)
}
