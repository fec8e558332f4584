package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// compile-time check that *PostStore implements repository.PostRepository
var _ repository.PostRepository = (*PostStore)(nil)

// PostStore reads and writes the posts table.
//
// Every read joins the author and counts likes and comments in the same
// query, so a loaded post always carries an accurate author summary and counts.
type PostStore struct {
	q querier
}

const postSelect = `
SELECT p.id, p.author_id, p.title, p.description, p.image_url, p.tags, p.medium,
       p.is_process_post, p.created_at, p.updated_at,
       u.name, u.profile_picture,
       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id`

// Create inserts a post. Counts start at zero and Author is left for the
// caller to fill in (or to re-read with GetByID).
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}

	t := now()
	post.ID = xid.New().String()
	post.CreatedAt = t
	post.UpdatedAt = t
	post.LikeCount = 0
	post.CommentCount = 0
	if post.Tags == nil {
		post.Tags = []string{}
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, description, image_url, tags, medium,
		                    is_process_post, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Description,
		post.ImageURL,
		tags,
		post.Medium,
		post.IsProcessPost,
		toNanos(post.CreatedAt),
		toNanos(post.UpdatedAt),
	)
	if err != nil {
		return wrapWrite(err, "creating post for author %s", post.AuthorID)
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := s.q.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id)

	p, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return p, nil
}

// List returns posts matching filter, newest first.
//
// A non-nil but empty AuthorIDs means "posts by nobody" and short-circuits to
// an empty result. That is what a following feed for a user who follows no
// one asks for.
func (s *PostStore) List(ctx context.Context, filter repository.PostFilter) ([]model.Post, error) {
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return []model.Post{}, nil
	}

	var (
		where []string
		args  []any
	)
	if len(filter.AuthorIDs) > 0 {
		where = append(where, `p.author_id IN (`+placeholders(len(filter.AuthorIDs))+`)`)
		for _, id := range filter.AuthorIDs {
			args = append(args, id)
		}
	}
	if filter.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(p.tags) WHERE json_each.value = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.Medium != "" {
		where = append(where, `p.medium = ?`)
		args = append(args, filter.Medium)
	}
	if filter.TitleContains != "" {
		where = append(where, `p.title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.TitleContains))
	}
	if filter.DescriptionContains != "" {
		where = append(where, `p.description LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.DescriptionContains))
	}
	if filter.ProcessOnly {
		where = append(where, `p.is_process_post = 1`)
	}

	query := postSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	return s.queryPosts(ctx, query, args...)
}

// Recent returns up to opts.Limit+1 posts ordered by (created_at, id)
// descending, starting strictly after the cursor post.
//
// The extra row lets the service tell whether another page exists without a
// second COUNT query. An unknown cursor id is reported as not found.
//
// Ordering on the (created_at, id) pair rather than created_at alone means
// two posts created in the same nanosecond still have a total order, so a
// page boundary can never skip or repeat one of them.
func (s *PostStore) Recent(ctx context.Context, opts repository.CursorOptions) ([]model.Post, error) {
	if opts.Cursor == "" {
		return s.queryPosts(ctx,
			postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`,
			opts.Limit+1)
	}

	var cursorAt int64
	err := s.q.QueryRowContext(ctx,
		`SELECT created_at FROM posts WHERE id = ?`, opts.Cursor).Scan(&cursorAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", opts.Cursor)
		}
		return nil, fmt.Errorf("sqlite: resolving cursor %s: %w", opts.Cursor, err)
	}

	return s.queryPosts(ctx,
		postSelect+`
		 WHERE p.created_at < ? OR (p.created_at = ? AND p.id < ?)
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ?`,
		cursorAt, cursorAt, opts.Cursor, opts.Limit+1)
}

// Popular returns one page of posts by like count descending, ties broken by
// newest first, together with the total number of posts.
func (s *PostStore) Popular(ctx context.Context, opts repository.ListOptions) ([]model.Post, int, error) {
	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}

	posts, err := s.queryPosts(ctx,
		postSelect+`
		 ORDER BY like_count DESC, p.created_at DESC, p.id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Update writes the editable columns of post. AuthorID and CreatedAt are fixed.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}
	post.UpdatedAt = now()

	res, err := s.q.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, description = ?, image_url = ?, tags = ?, medium = ?,
		     is_process_post = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Description,
		post.ImageURL,
		tags,
		post.Medium,
		post.IsProcessPost,
		toNanos(post.UpdatedAt),
		post.ID,
	)
	if err != nil {
		return wrapWrite(err, "updating post %s", post.ID)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("post", post.ID)
	}
	return nil
}

// Delete removes the post row only. Its likes and comments must go first.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func (s *PostStore) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM posts WHERE author_id = ?`, authorID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting posts by author %s: %w", authorID, err)
	}
	return rowsAffected(res)
}

func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

func scanPost(sc scanner) (*model.Post, error) {
	var (
		p                    model.Post
		author               model.UserSummary
		tags                 string
		createdAt, updatedAt int64
	)
	if err := sc.Scan(
		&p.ID,
		&p.AuthorID,
		&p.Title,
		&p.Description,
		&p.ImageURL,
		&tags,
		&p.Medium,
		&p.IsProcessPost,
		&createdAt,
		&updatedAt,
		&author.Name,
		&author.ProfilePicture,
		&p.LikeCount,
		&p.CommentCount,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of post %s: %w", p.ID, err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	author.ID = p.AuthorID
	p.Author = &author
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	return &p, nil
}

// Tags are stored as a JSON array in a TEXT column; json_each reads it back
// for tag filtering.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(b), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern with LIKE's
// wildcards escaped so user input matches literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
