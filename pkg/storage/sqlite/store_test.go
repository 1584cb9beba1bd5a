package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-metabox/pkg/storage"
	"github.com/goliatone/go-metabox/pkg/storage/sqlite"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "metabox.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := sqlite.Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestMetaUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	if err := store.UpdateMeta(ctx, 5, "my_desc_images", `[{"img":"a"}]`); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.UpdateMeta(ctx, 5, "my_desc_images", `[{"img":"b"},{"img":"a"}]`); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	value, ok, err := store.GetMeta(ctx, 5, "my_desc_images")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != `[{"img":"b"},{"img":"a"}]` {
		t.Fatalf("unexpected value %q", value)
	}

	all, err := store.AllMeta(ctx, 5)
	if err != nil || len(all) != 1 {
		t.Fatalf("all meta: %v %v", all, err)
	}

	if err := store.DeleteMeta(ctx, 5, "my_desc_images"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.GetMeta(ctx, 5, "my_desc_images"); ok || err != nil {
		t.Fatalf("expected deleted key, ok=%v err=%v", ok, err)
	}
	if err := store.DeleteMeta(ctx, 5, "never-set"); err != nil {
		t.Fatalf("delete unset key: %v", err)
	}
}

func TestPostsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	created, err := store.CreatePost(ctx, storage.Post{Type: "page", Title: "About"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Name != "about" {
		t.Fatalf("unexpected created post %+v", created)
	}
	if _, err := store.CreatePost(ctx, storage.Post{Type: "page", Name: "about"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatalf("got %+v want %+v", got, created)
	}
	if _, err := store.GetPost(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	posts, err := store.ListPosts(ctx)
	if err != nil || len(posts) != 1 {
		t.Fatalf("list: %v %v", posts, err)
	}
}
