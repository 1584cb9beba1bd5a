// Package testsupport holds fixtures shared by package tests: seeded stores,
// signed-in contexts and golden-file helpers.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
)

// NonceSecret is the fixed secret used by Nonces.
var NonceSecret = []byte("metabox-test-secret-0123456789")

// Users for signed-in test contexts.
var (
	Admin      = security.User{ID: 1, Login: "admin", Role: security.RoleAdministrator}
	Author     = security.User{ID: 2, Login: "author", Role: security.RoleAuthor}
	Subscriber = security.User{ID: 3, Login: "reader", Role: security.RoleSubscriber}
	Editor     = security.User{ID: 4, Login: "editor", Role: security.RoleEditor}
)

// Posts seeded by NewStore.
var (
	HelloPost = storage.Post{ID: 1, Type: "post", Name: "hello-world", Title: "Hello world"}
	AboutPage = storage.Post{ID: 2, Type: "page", Name: "about", Title: "About"}
	Product   = storage.Post{ID: 3, Type: "product", Name: "widget", Title: "Widget"}
)

// NewStore returns a memory store holding HelloPost, AboutPage and Product.
func NewStore(t testing.TB) *memory.Store {
	t.Helper()

	store := memory.New()
	for _, post := range []storage.Post{HelloPost, AboutPage, Product} {
		if _, err := store.CreatePost(context.Background(), post); err != nil {
			t.Fatalf("seed post %d: %v", post.ID, err)
		}
	}
	return store
}

// Nonces returns JWT nonces signed with NonceSecret.
func Nonces(t testing.TB) *security.JWTNonces {
	t.Helper()

	nonces, err := security.NewJWTNonces(NonceSecret)
	if err != nil {
		t.Fatalf("nonces: %v", err)
	}
	return nonces
}

// UserContext returns a background context carrying user.
func UserContext(user security.User) context.Context {
	return security.WithUser(context.Background(), user)
}

// MustNonce mints a nonce for action as the user in ctx.
func MustNonce(t testing.TB, nonces security.Nonces, ctx context.Context, action string) string {
	t.Helper()

	token, err := nonces.Create(ctx, action)
	if err != nil {
		t.Fatalf("create nonce %q: %v", action, err)
	}
	return token
}

// MustMeta reads a stored value, failing when it is unset.
func MustMeta(t testing.TB, store storage.MetaStore, postID int64, key string) string {
	t.Helper()

	value, ok, err := store.GetMeta(context.Background(), postID, key)
	if err != nil {
		t.Fatalf("get meta %s: %v", key, err)
	}
	if !ok {
		t.Fatalf("expected meta %s to be set on post %d", key, postID)
	}
	return value
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t testing.TB, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t testing.TB, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t testing.TB, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
