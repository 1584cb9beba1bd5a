// Package sqlite provides a SQLite-backed storage.Store using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/goliatone/go-metabox/internal/sqlitemigrate"
	"github.com/goliatone/go-metabox/pkg/storage"
	"github.com/goliatone/go-metabox/pkg/storage/sqlite/migrations"
)

// Store persists posts and metadata in SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) GetMeta(ctx context.Context, postID int64, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ?`,
		postID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get meta %d/%s: %w", postID, key, err)
	}
	return value, true, nil
}

func (s *Store) UpdateMeta(ctx context.Context, postID int64, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post_meta (post_id, meta_key, meta_value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (post_id, meta_key) DO UPDATE SET
		   meta_value = excluded.meta_value,
		   updated_at = excluded.updated_at`,
		postID, key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: update meta %d/%s: %w", postID, key, err)
	}
	return nil
}

func (s *Store) DeleteMeta(ctx context.Context, postID int64, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM post_meta WHERE post_id = ? AND meta_key = ?`, postID, key,
	); err != nil {
		return fmt.Errorf("sqlite: delete meta %d/%s: %w", postID, key, err)
	}
	return nil
}

func (s *Store) AllMeta(ctx context.Context, postID int64) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meta_key, meta_value FROM post_meta WHERE post_id = ? ORDER BY meta_key`, postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list meta %d: %w", postID, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("sqlite: scan meta: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate meta: %w", err)
	}
	return out, nil
}

func (s *Store) CreatePost(ctx context.Context, post storage.Post) (storage.Post, error) {
	post, err := storage.NormalizePost(post)
	if err != nil {
		return storage.Post{}, err
	}

	now := time.Now().UTC().UnixMilli()
	var res sql.Result
	if post.ID > 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO posts (id, type, name, title, created_at) VALUES (?, ?, ?, ?, ?)`,
			post.ID, post.Type, post.Name, post.Title, now,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO posts (type, name, title, created_at) VALUES (?, ?, ?, ?)`,
			post.Type, post.Name, post.Title, now,
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return storage.Post{}, fmt.Errorf("create post %s/%s: %w", post.Type, post.Name, storage.ErrAlreadyExists)
		}
		return storage.Post{}, fmt.Errorf("sqlite: create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.Post{}, fmt.Errorf("sqlite: post id: %w", err)
	}
	post.ID = id
	return post, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (storage.Post, error) {
	var post storage.Post
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, name, title FROM posts WHERE id = ?`, id,
	).Scan(&post.ID, &post.Type, &post.Name, &post.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Post{}, fmt.Errorf("sqlite: get post %d: %w", id, err)
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]storage.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, name, title FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list posts: %w", err)
	}
	defer rows.Close()

	var out []storage.Post
	for rows.Next() {
		var post storage.Post
		if err := rows.Scan(&post.ID, &post.Type, &post.Name, &post.Title); err != nil {
			return nil, fmt.Errorf("sqlite: scan post: %w", err)
		}
		out = append(out, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate posts: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
