package metabox

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/metavalue"
	"github.com/goliatone/go-metabox/pkg/render"
	"github.com/goliatone/go-metabox/pkg/sanitize"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// Group lays its fields out as table rows of columns and stores them as one
// JSON object under the box key.
type Group struct {
	base
	rows [][]field.Field
}

var _ Box = (*Group)(nil)

// NewGroup builds a Group box. Each inner slice is one table row.
func NewGroup(cfg Config, rows [][]field.Field, deps Deps) (*Group, error) {
	var (
		fields  []field.Field
		cleaned [][]field.Field
	)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cleaned = append(cleaned, append([]field.Field(nil), row...))
		fields = append(fields, row...)
	}
	b, err := newBase(KindGroup, cfg, fields, deps)
	if err != nil {
		return nil, err
	}
	box := &Group{base: b, rows: cleaned}
	box.base.render = box.Render
	box.base.save = box.Save
	return box, nil
}

func (g *Group) Init(d *hooks.Dispatcher) error {
	return g.init(d, g.Scripts)
}

// Layout returns the field rows.
func (g *Group) Layout() [][]field.Field {
	out := make([][]field.Field, len(g.rows))
	for i, row := range g.rows {
		out[i] = append([]field.Field(nil), row...)
	}
	return out
}

// Colspans spreads maxFields columns over count cells: every cell gets
// maxFields/count and the last cell also takes the remainder.
func Colspans(maxFields, count int) []int {
	if count <= 0 {
		return nil
	}
	if maxFields < count {
		maxFields = count
	}
	each := maxFields / count
	extra := maxFields - each*count
	spans := make([]int, count)
	for i := range spans {
		spans[i] = each
	}
	spans[count-1] += extra
	return spans
}

func (g *Group) maxFields() int {
	widest := 0
	for _, row := range g.rows {
		widest = max(widest, len(row))
	}
	return widest
}

// Render writes the table, valued from the decoded JSON object.
func (g *Group) Render(ctx context.Context, w io.Writer, post storage.Post) error {
	nonce, err := g.nonceField(ctx)
	if err != nil {
		return err
	}
	raw, err := g.load(ctx, post.ID, g.cfg.Key)
	if err != nil {
		return err
	}
	values := metavalue.DecodeGroup(raw)

	view := boxView{
		Key:    g.cfg.Key,
		Title:  g.cfg.Title,
		Kind:   string(g.kind),
		Hidden: []render.HiddenField{nonce},
	}
	maxFields := g.maxFields()
	for i, row := range g.rows {
		rowClass := "even-row"
		if i%2 == 1 {
			rowClass = "odd-row"
		}
		spans := Colspans(maxFields, len(row))
		cells := make([]fieldView, 0, len(row))
		for j, f := range row {
			position := ""
			switch j {
			case 0:
				position = "first-field"
			case len(row) - 1:
				position = "last-field"
			}
			name := formdata.Name(g.cfg.Key, f.Name)
			cell := newFieldView(f, name, inputID(name), values.Get(f.Name, f.Options.Default), field.DefaultGroupRows, position)
			if spans[j] > 1 {
				cell.Colspan = strconv.Itoa(spans[j])
			}
			cells = append(cells, cell)
		}
		view.Rows = append(view.Rows, rowView{Class: render.ClassList("form-field", rowClass), Cells: cells})
	}
	return g.execute("box_group", view, w)
}

// Save stores the declared sub-keys submitted under key[...] as one JSON
// object. A group whose values are all empty deletes the key.
func (g *Group) Save(ctx context.Context, req SaveRequest) error {
	submitted, present := req.Form.Map(g.cfg.Key)
	ok, err := g.authorize(ctx, req.Post, req.Form, present)
	if !ok {
		return err
	}

	group := make(metavalue.Group, len(g.fields))
	for _, f := range g.fields {
		raw, ok := submitted[f.Name]
		if !ok {
			continue
		}
		group[f.Name] = sanitize.Field(f, raw)
	}
	if group.Empty() {
		return g.store(ctx, req.Post.ID, g.cfg.Key, "")
	}
	encoded, err := metavalue.EncodeGroup(group)
	if err != nil {
		return fmt.Errorf("metabox: %s: %w", g.cfg.Key, err)
	}
	return g.store(ctx, req.Post.ID, g.cfg.Key, encoded)
}
