package metabox

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/assets"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/render/template"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// HostOption customises a Host.
type HostOption func(*Host)

// WithDispatcher injects the dispatcher boxes are wired into. Other
// components may hook into the same dispatcher.
func WithDispatcher(d *hooks.Dispatcher) HostOption {
	return func(h *Host) {
		if d != nil {
			h.dispatcher = d
		}
	}
}

// WithLogger sets the host logger.
func WithLogger(logger *zap.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Host drives the registered boxes through the hooks an edit screen fires.
type Host struct {
	registry   *Registry
	dispatcher *hooks.Dispatcher
	templates  template.TemplateRenderer
	logger     *zap.Logger
}

// NewHost wires every box in registry into the dispatcher.
func NewHost(registry *Registry, templates template.TemplateRenderer, options ...HostOption) (*Host, error) {
	if registry == nil {
		return nil, errors.New("metabox: registry is required")
	}
	if templates == nil {
		return nil, errors.New("metabox: templates are required")
	}
	h := &Host{
		registry:  registry,
		templates: templates,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	if h.dispatcher == nil {
		h.dispatcher = hooks.New()
	}
	if err := registry.Init(h.dispatcher); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) Registry() *Registry { return h.registry }

func (h *Host) Dispatcher() *hooks.Dispatcher { return h.dispatcher }

// EditScreen fires add_meta_boxes and returns the populated screen.
func (h *Host) EditScreen(ctx context.Context, post storage.Post) (*Screen, error) {
	screen := NewScreen(post.Type, post)
	event := &AddMetaBoxesEvent{PostType: post.Type, Post: post, Screen: screen}
	if err := h.dispatcher.Do(ctx, hooks.AddMetaBoxes, event); err != nil {
		return nil, fmt.Errorf("metabox: add meta boxes: %w", err)
	}
	return screen, nil
}

// RenderScreen builds and renders the edit screen of post.
func (h *Host) RenderScreen(ctx context.Context, w io.Writer, post storage.Post) error {
	screen, err := h.EditScreen(ctx, post)
	if err != nil {
		return err
	}
	return screen.Render(ctx, w, h.templates)
}

// Save fires save_post. Every box runs; their errors are joined.
func (h *Host) Save(ctx context.Context, post storage.Post, form formdata.Values) error {
	err := h.dispatcher.Do(ctx, hooks.SavePost, &SavePostEvent{Post: post, Form: form})
	if err != nil {
		h.logger.Warn("save post", zap.Int64("post_id", post.ID), zap.Error(err))
		return err
	}
	h.logger.Info("post saved", zap.Int64("post_id", post.ID), zap.Int("fields", len(form)))
	return nil
}

// Scripts fires admin_enqueue_scripts for page and returns the ordered queue.
func (h *Host) Scripts(ctx context.Context, page string) ([]assets.Script, error) {
	queue := assets.NewQueue()
	if err := h.dispatcher.Do(ctx, hooks.AdminEnqueueScripts, &EnqueueScriptsEvent{Page: page, Queue: queue}); err != nil {
		return nil, fmt.Errorf("metabox: enqueue scripts: %w", err)
	}
	return queue.Scripts()
}
