package metabox

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goliatone/go-metabox/pkg/assets"
	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/metavalue"
	"github.com/goliatone/go-metabox/pkg/render"
	"github.com/goliatone/go-metabox/pkg/sanitize"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// Repeater renders a list of identical rows and stores them, in submitted
// order, as one JSON array under the box key.
type Repeater struct {
	base
}

var _ Box = (*Repeater)(nil)

// NewRepeater builds a Repeater box whose rows hold fields.
func NewRepeater(cfg Config, fields []field.Field, deps Deps) (*Repeater, error) {
	b, err := newBase(KindRepeater, cfg, fields, deps)
	if err != nil {
		return nil, err
	}
	box := &Repeater{base: b}
	box.base.render = box.Render
	box.base.save = box.Save
	return box, nil
}

func (r *Repeater) Init(d *hooks.Dispatcher) error {
	return r.init(d, r.Scripts)
}

// Scripts adds the row cloner to the media picker.
func (r *Repeater) Scripts() []assets.Script {
	return append(r.base.Scripts(), assets.RepeaterScript(r.deps.AssetBase))
}

// Sentinel is the hidden input that marks the repeater as submitted even
// when every row was removed.
func (r *Repeater) Sentinel() string {
	return render.SentinelName(r.cfg.Key)
}

// Render writes the template row followed by one row per stored entry.
func (r *Repeater) Render(ctx context.Context, w io.Writer, post storage.Post) error {
	nonce, err := r.nonceField(ctx)
	if err != nil {
		return err
	}
	raw, err := r.load(ctx, post.ID, r.cfg.Key)
	if err != nil {
		return err
	}
	stored := metavalue.DecodeRows(raw)

	view := boxView{
		Key:     r.cfg.Key,
		Title:   r.cfg.Title,
		Kind:    string(r.kind),
		Hidden:  []render.HiddenField{nonce, render.SentinelField(r.cfg.Key)},
		AddText: "Add",
	}
	view.Rows = append(view.Rows, r.row(formdata.TemplateRow, nil, true))
	for i, values := range stored {
		view.Rows = append(view.Rows, r.row(strconv.Itoa(i), values, false))
	}
	return r.execute("box_repeater", view, w)
}

func (r *Repeater) row(index string, values metavalue.Group, template bool) rowView {
	row := rowView{Index: index, Template: template, Class: "js-element"}
	if template {
		row.Class = "js-template"
	}
	for _, f := range r.fields {
		name := formdata.Name(r.cfg.Key, index, f.Name)
		cell := newFieldView(f, name, "", values.Get(f.Name, f.Options.Default), field.DefaultGroupRows, "")
		// A hidden, empty template row must not block form submission.
		cell.Required = cell.Required && !template
		row.Cells = append(row.Cells, cell)
	}
	return row
}

// Save stores the submitted rows in body order. Rows whose values are all
// empty are dropped; no rows left deletes the key.
func (r *Repeater) Save(ctx context.Context, req SaveRequest) error {
	present := req.Form.HasBase(r.cfg.Key) || req.Form.Has(r.Sentinel())
	ok, err := r.authorize(ctx, req.Post, req.Form, present)
	if !ok {
		return err
	}

	submitted, _ := req.Form.Rows(r.cfg.Key)
	rows := make(metavalue.Rows, 0, len(submitted))
	for _, entry := range submitted {
		group := make(metavalue.Group, len(r.fields))
		for _, f := range r.fields {
			group[f.Name] = sanitize.Field(f, entry[f.Name])
		}
		if group.Empty() {
			continue
		}
		rows = append(rows, group)
	}
	if len(rows) == 0 {
		return r.store(ctx, req.Post.ID, r.cfg.Key, "")
	}
	encoded, err := metavalue.EncodeRows(rows)
	if err != nil {
		return fmt.Errorf("metabox: %s: %w", r.cfg.Key, err)
	}
	return r.store(ctx, req.Post.ID, r.cfg.Key, encoded)
}
