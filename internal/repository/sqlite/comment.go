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

// compile-time check that *CommentStore implements repository.CommentRepository
var _ repository.CommentRepository = (*CommentStore)(nil)

type CommentStore struct {
	q querier
}

const commentSelect = `
SELECT c.id, c.author_id, c.post_id, c.content, c.created_at, c.updated_at,
       u.name, u.profile_picture
FROM comments c
JOIN users u ON u.id = c.author_id`

func (s *CommentStore) Create(ctx context.Context, comment *model.Comment) error {
	t := now()
	comment.ID = xid.New().String()
	comment.CreatedAt = t
	comment.UpdatedAt = t

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO comments (id, author_id, post_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.AuthorID,
		comment.PostID,
		comment.Content,
		toNanos(comment.CreatedAt),
		toNanos(comment.UpdatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating comment on post %s", comment.PostID)
	}
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	row := s.q.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id)

	c, err := scanComment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return c, nil
}

// ListByPost returns a post's comments, newest first.
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.q.QueryContext(ctx,
		commentSelect+` WHERE c.post_id = ? ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments on post %s: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

func (s *CommentStore) UpdateContent(ctx context.Context, id, content string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		content, toNanos(now()), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

func (s *CommentStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

func (s *CommentStore) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.deleteWhere(ctx, `author_id = ?`, authorID)
}

func (s *CommentStore) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return s.deleteWhere(ctx, `post_id = ?`, postID)
}

func (s *CommentStore) DeleteOnPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.deleteWhere(ctx, `post_id IN (SELECT id FROM posts WHERE author_id = ?)`, authorID)
}

func (s *CommentStore) deleteWhere(ctx context.Context, cond string, arg any) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM comments WHERE `+cond, arg)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting comments where %s: %w", cond, err)
	}
	return rowsAffected(res)
}

func scanComment(sc scanner) (*model.Comment, error) {
	var (
		c                    model.Comment
		author               model.UserSummary
		createdAt, updatedAt int64
	)
	if err := sc.Scan(
		&c.ID,
		&c.AuthorID,
		&c.PostID,
		&c.Content,
		&createdAt,
		&updatedAt,
		&author.Name,
		&author.ProfilePicture,
	); err != nil {
		return nil, err
	}
	author.ID = c.AuthorID
	c.Author = &author
	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return &c, nil
}
