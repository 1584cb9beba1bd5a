// Package storage defines the persistence contracts meta boxes rely on: a
// key-value metadata store scoped by post, and a small post repository used
// by the admin screens. Implementations live in the memory and sqlite
// subpackages.
package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrAlreadyExists is returned when creating a post whose slug is taken for
// its type.
var ErrAlreadyExists = errors.New("storage: already exists")

// Post is the content item meta boxes attach values to.
type Post struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// IDString returns the decimal post ID, as matched by box enablement rules.
func (p Post) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

// MetaStore persists one string value per (post, key).
type MetaStore interface {
	// GetMeta returns the stored value; ok is false when the key is unset.
	GetMeta(ctx context.Context, postID int64, key string) (value string, ok bool, err error)
	UpdateMeta(ctx context.Context, postID int64, key, value string) error
	// DeleteMeta is a no-op when the key is unset.
	DeleteMeta(ctx context.Context, postID int64, key string) error
	AllMeta(ctx context.Context, postID int64) (map[string]string, error)
}

// PostRepository stores posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post Post) (Post, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
}

// Store is the combination the admin server needs.
type Store interface {
	MetaStore
	PostRepository
	Close() error
}

// NormalizePost trims and validates a post before it is created.
func NormalizePost(post Post) (Post, error) {
	post.Type = strings.TrimSpace(post.Type)
	post.Name = strings.TrimSpace(post.Name)
	post.Title = strings.TrimSpace(post.Title)
	if post.Type == "" {
		post.Type = "post"
	}
	if post.Name == "" {
		post.Name = Slugify(post.Title)
	}
	if post.Name == "" {
		return Post{}, errors.New("storage: post slug or title is required")
	}
	return post, nil
}

// ValidateKey rejects empty metadata keys.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: meta key is required")
	}
	return nil
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var (
		buf  strings.Builder
		dash bool
	)
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && buf.Len() > 0 {
				buf.WriteByte('-')
			}
			dash = false
			buf.WriteRune(r)
		default:
			dash = true
		}
	}
	return buf.String()
}
