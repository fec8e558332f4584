// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain and tests can use a throwaway ":memory:" database.
//
// LAYOUT:
// DB owns the connection pool and implements repository.Store. Each entity
// gets its own small store type (UserStore, PostStore, ...) that runs its
// queries through a querier, which is either the pool or an open *sql.Tx.
// That is what lets a service run several repositories inside one
// transaction (see InTx) without the repositories knowing about it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AmanCrafts/CraftBook/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// querier is the subset of *sql.DB and *sql.Tx the stores need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out per-entity stores.
//
// When tx is non-nil this DB value is bound to a transaction and every store
// it returns runs inside that transaction.
type DB struct {
	conn *sql.DB
	q    querier
	tx   *sql.Tx
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/craftbook.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
//
// PRAGMAS IN THE DSN:
// foreign_keys and busy_timeout are per-connection settings in SQLite. Passing
// them as _pragma parameters makes the driver apply them to every connection
// the pool opens, not just the first one.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection turns
	// lock contention into queueing inside database/sql instead of
	// SQLITE_BUSY errors, and keeps a ":memory:" database alive and shared.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, q: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath == ":memory:" {
		return "file::memory:?" + pragmas
	}
	return "file:" + dbPath + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository       { return &UserStore{q: db.q} }
func (db *DB) Posts() repository.PostRepository       { return &PostStore{q: db.q} }
func (db *DB) Likes() repository.LikeRepository       { return &LikeStore{q: db.q} }
func (db *DB) Comments() repository.CommentRepository { return &CommentStore{q: db.q} }
func (db *DB) Follows() repository.FollowRepository   { return &FollowStore{q: db.q} }
func (db *DB) Images() repository.ImageRepository     { return &ImageStore{q: db.q} }

// InTx runs fn inside a single transaction.
//
// fn receives a Store bound to the transaction. Returning an error rolls back
// every statement fn ran; returning nil commits them together. A panic inside
// fn also rolls back before being re-raised. Calling InTx on a Store that is
// already transactional just runs fn in the existing transaction.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.tx != nil {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cErr)
		}
	}()

	return fn(&DB{conn: db.conn, q: tx, tx: tx})
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// FOREIGN KEYS WITHOUT ON DELETE CASCADE:
// Children reference their parents with plain REFERENCES clauses. Deleting a
// parent that still has children fails, so every multi-row delete in the
// services removes children first. Likes and comments on a user's posts point
// at posts, not at the user, and would never be reached by a cascade on users.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id               TEXT PRIMARY KEY,
				external_auth_id TEXT UNIQUE,
				email            TEXT NOT NULL UNIQUE COLLATE NOCASE,
				password_hash    TEXT,
				name             TEXT NOT NULL,
				bio              TEXT NOT NULL DEFAULT '',
				profile_picture  TEXT NOT NULL DEFAULT '',
				medium           TEXT NOT NULL DEFAULT '',
				created_at       INTEGER NOT NULL,
				updated_at       INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
		`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id              TEXT PRIMARY KEY,
				author_id       TEXT NOT NULL REFERENCES users(id),
				title           TEXT NOT NULL,
				description     TEXT NOT NULL DEFAULT '',
				image_url       TEXT NOT NULL,
				tags            TEXT NOT NULL DEFAULT '[]',
				medium          TEXT NOT NULL DEFAULT '',
				is_process_post INTEGER NOT NULL DEFAULT 0,
				created_at      INTEGER NOT NULL,
				updated_at      INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at, id);
			CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
		`},
		{"likes", `
			CREATE TABLE IF NOT EXISTS likes (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				post_id    TEXT NOT NULL REFERENCES posts(id),
				created_at INTEGER NOT NULL,
				UNIQUE (user_id, post_id)
			);
			CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);
		`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         TEXT PRIMARY KEY,
				author_id  TEXT NOT NULL REFERENCES users(id),
				post_id    TEXT NOT NULL REFERENCES posts(id),
				content    TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
			CREATE INDEX IF NOT EXISTS idx_comments_author_id ON comments(author_id);
		`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				id           TEXT PRIMARY KEY,
				follower_id  TEXT NOT NULL REFERENCES users(id),
				following_id TEXT NOT NULL REFERENCES users(id),
				created_at   INTEGER NOT NULL,
				UNIQUE (follower_id, following_id),
				CHECK (follower_id <> following_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);
		`},
		{"images", `
			CREATE TABLE IF NOT EXISTS images (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL,
				storage_key TEXT NOT NULL,
				url         TEXT NOT NULL,
				created_at  INTEGER NOT NULL
			);
		`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// Timestamps are stored as Unix nanoseconds so that ORDER BY and the cursor
// comparison in PostStore.Recent are plain integer comparisons.
func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func now() time.Time { return time.Now().UTC() }

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rowsAffected reads how many rows an UPDATE or DELETE touched.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
