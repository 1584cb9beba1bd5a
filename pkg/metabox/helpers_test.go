package metabox_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
	"github.com/goliatone/go-metabox/pkg/testsupport"
)

type fixture struct {
	store  *memory.Store
	nonces *security.JWTNonces
	deps   metabox.Deps
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	templates, err := metabox.NewTemplates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := testsupport.NewStore(t)
	nonces := testsupport.Nonces(t)
	return fixture{
		store:  store,
		nonces: nonces,
		deps: metabox.Deps{
			Store:      store,
			Nonces:     nonces,
			Authorizer: security.NewRoleAuthorizer(nil),
			Templates:  templates,
		},
	}
}

// form builds an ordered submission carrying a valid nonce for action.
func (f fixture) form(t *testing.T, ctx context.Context, action string, pairs ...string) formdata.Values {
	t.Helper()

	var values formdata.Values
	if action != "" {
		values.Add(action, testsupport.MustNonce(t, f.nonces, ctx, action))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		values.Add(pairs[i], pairs[i+1])
	}
	return values
}

func renderBox(t *testing.T, ctx context.Context, box metabox.Box, postID int64) string {
	t.Helper()

	post := testsupport.HelloPost
	post.ID = postID
	var buf bytes.Buffer
	if err := box.Render(ctx, &buf, post); err != nil {
		t.Fatalf("render %s: %v", box.Config().Key, err)
	}
	return buf.String()
}
