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

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore reads and writes the users table.
type UserStore struct {
	q querier
}

const userColumns = `id, external_auth_id, email, password_hash, name, bio,
	profile_picture, medium, created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps on the caller's struct.
// A duplicate email or external auth id is reported as repository.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	t := now()
	user.ID = xid.New().String()
	user.CreatedAt = t
	user.UpdatedAt = t

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.ExternalAuthID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Bio,
		user.ProfilePicture,
		user.Medium,
		toNanos(user.CreatedAt),
		toNanos(user.UpdatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating user (email=%s)", user.Email)
	}
	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getOne(ctx, "id", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, "email", email)
}

func (s *UserStore) GetByExternalAuthID(ctx context.Context, externalID string) (*model.User, error) {
	return s.getOne(ctx, "external_auth_id", externalID)
}

// getOne looks a user up by one unique column. column is always a literal
// from this file, never caller input.
func (s *UserStore) getOne(ctx context.Context, column, value string) (*model.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}
	return u, nil
}

// List returns every user, newest first.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// Update writes every mutable column of user. CreatedAt and ID never change.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = now()

	res, err := s.q.ExecContext(ctx,
		`UPDATE users
		 SET external_auth_id = ?, email = ?, password_hash = ?, name = ?, bio = ?,
		     profile_picture = ?, medium = ?, updated_at = ?
		 WHERE id = ?`,
		user.ExternalAuthID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Bio,
		user.ProfilePicture,
		user.Medium,
		toNanos(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return wrapWrite(err, "updating user %s", user.ID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// Delete removes only the user row. Callers must remove dependent rows first;
// the foreign keys reject the delete otherwise.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*model.User, error) {
	var (
		u                    model.User
		externalID, pwdHash  sql.NullString
		createdAt, updatedAt int64
	)
	if err := sc.Scan(
		&u.ID,
		&externalID,
		&u.Email,
		&pwdHash,
		&u.Name,
		&u.Bio,
		&u.ProfilePicture,
		&u.Medium,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if externalID.Valid {
		u.ExternalAuthID = &externalID.String
	}
	if pwdHash.Valid {
		u.PasswordHash = &pwdHash.String
	}
	u.CreatedAt = fromNanos(createdAt)
	u.UpdatedAt = fromNanos(updatedAt)
	return &u, nil
}
