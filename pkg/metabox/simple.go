package metabox

import (
	"context"
	"errors"
	"io"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/render"
	"github.com/goliatone/go-metabox/pkg/sanitize"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// Simple stores each field under its own metadata key, the field name.
type Simple struct {
	base
}

var _ Box = (*Simple)(nil)

// NewSimple builds a Simple box.
func NewSimple(cfg Config, fields []field.Field, deps Deps) (*Simple, error) {
	b, err := newBase(KindSimple, cfg, fields, deps)
	if err != nil {
		return nil, err
	}
	box := &Simple{base: b}
	box.base.render = box.Render
	box.base.save = box.Save
	return box, nil
}

func (s *Simple) Init(d *hooks.Dispatcher) error {
	return s.init(d, s.Scripts)
}

// Render writes one paragraph per field, valued from the field's own key.
func (s *Simple) Render(ctx context.Context, w io.Writer, post storage.Post) error {
	nonce, err := s.nonceField(ctx)
	if err != nil {
		return err
	}

	view := boxView{
		Key:    s.cfg.Key,
		Title:  s.cfg.Title,
		Kind:   string(s.kind),
		Hidden: []render.HiddenField{nonce},
	}
	for _, f := range s.fields {
		value, ok, err := s.deps.Store.GetMeta(ctx, post.ID, f.Name)
		if err != nil {
			return err
		}
		if !ok {
			value = f.Options.Default
		}
		view.Fields = append(view.Fields, newFieldView(f, f.Name, inputID(f.Name), value, field.DefaultRows, ""))
	}
	return s.execute("box_simple", view, w)
}

// Save updates each submitted field; an empty value after sanitizing deletes
// the key. Fields missing from the form are left untouched.
func (s *Simple) Save(ctx context.Context, req SaveRequest) error {
	present := false
	for _, f := range s.fields {
		if req.Form.Has(f.Name) {
			present = true
			break
		}
	}
	ok, err := s.authorize(ctx, req.Post, req.Form, present)
	if !ok {
		return err
	}

	var errs []error
	for _, f := range s.fields {
		raw, submitted := req.Form.Last(f.Name)
		if !submitted {
			continue
		}
		if err := s.store(ctx, req.Post.ID, f.Name, sanitize.Field(f, raw)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
