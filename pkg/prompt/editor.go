// Package prompt edits a meta box from the terminal. Answers are collected
// into the same form body the edit screen posts, then handed to the box's
// Save so the capability and nonce gate still applies.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/metavalue"
	"github.com/goliatone/go-metabox/pkg/render"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

const noneOption = "(none)"

// Option configures an Editor.
type Option func(*Editor)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.log = logger
		}
	}
}

// Editor prompts for the fields of one box at a time.
type Editor struct {
	store  storage.MetaStore
	nonces security.Nonces
	driver PromptDriver
	log    *zap.Logger
}

// New returns an editor reading current values from store and minting
// nonces with nonces.
func New(store storage.MetaStore, nonces security.Nonces, options ...Option) (*Editor, error) {
	if store == nil || nonces == nil {
		return nil, errors.New("prompt: store and nonces are required")
	}
	e := &Editor{
		store:  store,
		nonces: nonces,
		driver: NewSurveyDriver(nil),
		log:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Edit prompts for every field of box on post and saves the answers as the
// user carried by ctx. The submitted form is returned alongside any save
// error.
func (e *Editor) Edit(ctx context.Context, box metabox.Box, post storage.Post) (formdata.Values, error) {
	if box == nil {
		return nil, errors.New("prompt: box is required")
	}
	cfg := box.Config()
	if err := e.driver.Info(ctx, fmt.Sprintf("%s (post %d, %s)", cfg.Title, post.ID, post.Name)); err != nil {
		return nil, err
	}

	var (
		form formdata.Values
		err  error
	)
	switch box.Kind() {
	case metabox.KindGroup:
		form, err = e.group(ctx, box, post)
	case metabox.KindRepeater:
		form, err = e.repeater(ctx, box, post)
	default:
		form, err = e.simple(ctx, box, post)
	}
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", cfg.Key, err)
	}

	token, err := e.nonces.Create(ctx, cfg.Nonce)
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", cfg.Key, err)
	}
	form.Add(cfg.Nonce, token)

	if err := box.Save(ctx, metabox.SaveRequest{Post: post, Form: form}); err != nil {
		return form, err
	}
	e.log.Info("box saved from terminal",
		zap.String("box", cfg.Key),
		zap.Int64("post_id", post.ID),
		zap.Int("inputs", len(form)))
	return form, nil
}

func (e *Editor) simple(ctx context.Context, box metabox.Box, post storage.Post) (formdata.Values, error) {
	var form formdata.Values
	for _, f := range box.Fields() {
		current, ok, err := e.store.GetMeta(ctx, post.ID, f.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			current = f.Options.Default
		}
		answer, err := e.ask(ctx, f, current)
		if err != nil {
			return nil, err
		}
		form.Add(f.Name, answer)
	}
	return form, nil
}

func (e *Editor) group(ctx context.Context, box metabox.Box, post storage.Post) (formdata.Values, error) {
	key := box.Config().Key
	raw, _, err := e.store.GetMeta(ctx, post.ID, key)
	if err != nil {
		return nil, err
	}
	current := metavalue.DecodeGroup(raw)

	rows := [][]field.Field{box.Fields()}
	if laid, ok := box.(interface{ Layout() [][]field.Field }); ok {
		rows = laid.Layout()
	}

	var form formdata.Values
	for i, row := range rows {
		if len(rows) > 1 {
			if err := e.driver.Info(ctx, fmt.Sprintf("Row %d of %d", i+1, len(rows))); err != nil {
				return nil, err
			}
		}
		for _, f := range row {
			answer, err := e.ask(ctx, f, current.Get(f.Name, f.Options.Default))
			if err != nil {
				return nil, err
			}
			form.Add(formdata.Name(key, f.Name), answer)
		}
	}
	return form, nil
}

// repeater offers each stored row for keeping and editing, then appends new
// rows until the user declines. Kept rows are renumbered from zero.
func (e *Editor) repeater(ctx context.Context, box metabox.Box, post storage.Post) (formdata.Values, error) {
	key := box.Config().Key
	raw, _, err := e.store.GetMeta(ctx, post.ID, key)
	if err != nil {
		return nil, err
	}

	var form formdata.Values
	form.Add(render.SentinelName(key), "1")

	next := 0
	addRow := func(values metavalue.Group) error {
		index := strconv.Itoa(next)
		for _, f := range box.Fields() {
			answer, err := e.ask(ctx, f, values.Get(f.Name, f.Options.Default))
			if err != nil {
				return err
			}
			form.Add(formdata.Name(key, index, f.Name), answer)
		}
		next++
		return nil
	}

	for i, row := range metavalue.DecodeRows(raw) {
		keep, err := e.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Keep row %d (%s)?", i+1, summary(box.Fields(), row)),
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		if err := addRow(row); err != nil {
			return nil, err
		}
	}

	for {
		more, err := e.driver.Confirm(ctx, ConfirmConfig{Message: "Add a row?"})
		if err != nil {
			return nil, err
		}
		if !more {
			return form, nil
		}
		if err := addRow(metavalue.Group{}); err != nil {
			return nil, err
		}
	}
}

// ask prompts for one field. Hidden fields keep their current value.
func (e *Editor) ask(ctx context.Context, f field.Field, current string) (string, error) {
	label := f.DisplayLabel()
	switch f.Type {
	case field.TypeHidden:
		return current, nil
	case field.TypeCheckbox:
		checked, err := e.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current == "1"})
		if err != nil || !checked {
			return "", err
		}
		return "1", nil
	case field.TypeSelect:
		return e.choose(ctx, f, label, current)
	case field.TypeTextarea, field.TypeEditor:
		return e.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: f.Options.Placeholder})
	}

	cfg := InputConfig{Message: label, Default: current, Help: f.Options.Placeholder}
	switch {
	case f.Type == field.TypeDate:
		cfg.Validator = func(value string) error {
			if strings.TrimSpace(value) == "" && !f.Options.Required {
				return nil
			}
			if _, ok := field.NormalizeDate(value); !ok {
				return fmt.Errorf("expected a date as %s or %s", field.StorageDateLayout, field.DisplayDateLayout)
			}
			return nil
		}
	case f.Options.Required:
		cfg.Validator = func(value string) error {
			if strings.TrimSpace(value) == "" {
				return errors.New("a value is required")
			}
			return nil
		}
	}
	return e.driver.Input(ctx, cfg)
}

func (e *Editor) choose(ctx context.Context, f field.Field, label, current string) (string, error) {
	var (
		options []string
		values  []string
	)
	if !f.Options.Required {
		options = append(options, noneOption)
		values = append(values, "")
	}
	for _, choice := range f.Options.Choices {
		text := choice.Label
		if text == "" {
			text = choice.Value
		}
		options = append(options, text)
		values = append(values, choice.Value)
	}

	idx, err := e.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: slices.Index(values, current),
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(values) {
		return "", fmt.Errorf("select %s: no option at index %d", f.Name, idx)
	}
	return values[idx], nil
}

const summaryWidth = 40

func summary(fields []field.Field, row metavalue.Group) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if value := strings.TrimSpace(row[f.Name]); value != "" {
			parts = append(parts, value)
		}
	}
	text := []rune(strings.Join(parts, ", "))
	if len(text) > summaryWidth {
		return string(text[:summaryWidth-3]) + "..."
	}
	return string(text)
}
