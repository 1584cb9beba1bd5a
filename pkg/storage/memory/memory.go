// Package memory provides an in-process storage.Store, used by tests and by
// the CLI when no database path is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-metabox/pkg/storage"
)

type metaKey struct {
	postID int64
	key    string
}

// Store keeps posts and metadata in maps guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]storage.Post
	meta   map[metaKey]string
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID: 1,
		posts:  make(map[int64]storage.Post),
		meta:   make(map[metaKey]string),
	}
}

func (s *Store) GetMeta(ctx context.Context, postID int64, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.meta[metaKey{postID, key}]
	return value, ok, nil
}

func (s *Store) UpdateMeta(ctx context.Context, postID int64, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[metaKey{postID, key}] = value
	return nil
}

func (s *Store) DeleteMeta(ctx context.Context, postID int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meta, metaKey{postID, key})
	return nil
}

func (s *Store) AllMeta(ctx context.Context, postID int64) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, value := range s.meta {
		if k.postID == postID {
			out[k.key] = value
		}
	}
	return out, nil
}

func (s *Store) CreatePost(ctx context.Context, post storage.Post) (storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return storage.Post{}, err
	}
	post, err := storage.NormalizePost(post)
	if err != nil {
		return storage.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.posts {
		if existing.Type == post.Type && existing.Name == post.Name {
			return storage.Post{}, fmt.Errorf("create post %s/%s: %w", post.Type, post.Name, storage.ErrAlreadyExists)
		}
	}
	if post.ID <= 0 {
		post.ID = s.nextID
	}
	if _, taken := s.posts[post.ID]; taken {
		return storage.Post{}, fmt.Errorf("create post %d: %w", post.ID, storage.ErrAlreadyExists)
	}
	if post.ID >= s.nextID {
		s.nextID = post.ID + 1
	}
	s.posts[post.ID] = post
	return post, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return storage.Post{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	if !ok {
		return storage.Post{}, storage.ErrNotFound
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]storage.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Post, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
