package metabox

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/assets"
	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/render"
	"github.com/goliatone/go-metabox/pkg/render/template"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
)

var (
	// ErrForbidden is returned when the current user lacks the box capability.
	ErrForbidden = errors.New("metabox: forbidden")
	// ErrInvalidNonce is security.ErrInvalidNonce, re-exported for callers
	// that only import this package.
	ErrInvalidNonce = security.ErrInvalidNonce
)

// DefaultAssetBase is where the server mounts assets.FS.
const DefaultAssetBase = "/assets"

// Box is a meta box of any kind.
type Box interface {
	Config() Config
	Kind() Kind
	Fields() []field.Field
	// Init registers the box on the add_meta_boxes, save_post and
	// admin_enqueue_scripts hooks.
	Init(d *hooks.Dispatcher) error
	Render(ctx context.Context, w io.Writer, post storage.Post) error
	// Save persists the box's part of req.Form. It is a no-op when the form
	// holds none of the box inputs.
	Save(ctx context.Context, req SaveRequest) error
	Scripts() []assets.Script
}

// SaveRequest is one submission of the edit form.
type SaveRequest struct {
	Post storage.Post
	Form formdata.Values
}

// Deps are the host services a box uses.
type Deps struct {
	Store      storage.MetaStore
	Nonces     security.Nonces
	Authorizer security.Authorizer
	Templates  template.TemplateRenderer
	Logger     *zap.Logger
	// AssetBase prefixes script URLs. Defaults to DefaultAssetBase.
	AssetBase string
}

func (d Deps) validate() error {
	switch {
	case d.Store == nil:
		return errors.New("metabox: store is required")
	case d.Nonces == nil:
		return errors.New("metabox: nonces are required")
	case d.Authorizer == nil:
		return errors.New("metabox: authorizer is required")
	case d.Templates == nil:
		return errors.New("metabox: templates are required")
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.AssetBase == "" {
		d.AssetBase = DefaultAssetBase
	}
	return d
}

// base carries what every kind shares: config, fields, host services and
// the hook wiring.
type base struct {
	cfg    Config
	kind   Kind
	fields []field.Field
	deps   Deps
	log    *zap.Logger

	render func(ctx context.Context, w io.Writer, post storage.Post) error
	save   func(ctx context.Context, req SaveRequest) error
}

func newBase(kind Kind, cfg Config, fields []field.Field, deps Deps) (base, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return base{}, err
	}
	if len(fields) == 0 {
		return base{}, fmt.Errorf("metabox: %s: at least one field is required", cfg.Key)
	}
	if err := field.ValidateAll(fields); err != nil {
		return base{}, fmt.Errorf("metabox: %s: %w", cfg.Key, err)
	}
	if err := deps.validate(); err != nil {
		return base{}, err
	}
	deps = deps.withDefaults()
	return base{
		cfg:    cfg,
		kind:   kind,
		fields: append([]field.Field(nil), fields...),
		deps:   deps,
		log:    deps.Logger.With(zap.String("box", cfg.Key), zap.String("kind", string(kind))),
	}, nil
}

func (b *base) Config() Config { return b.cfg }

func (b *base) Kind() Kind { return b.kind }

func (b *base) Fields() []field.Field {
	return append([]field.Field(nil), b.fields...)
}

// Scripts returns the media picker script; the repeater adds its own.
func (b *base) Scripts() []assets.Script {
	return []assets.Script{assets.MediaScript(b.deps.AssetBase)}
}

// Init wires the box into d. scripts is the concrete box's script list.
func (b *base) init(d *hooks.Dispatcher, scripts func() []assets.Script) error {
	if d == nil {
		return errors.New("metabox: dispatcher is required")
	}
	if err := d.AddAction(hooks.AddMetaBoxes, hooks.DefaultPriority, b.onAddMetaBoxes); err != nil {
		return err
	}
	if err := d.AddAction(hooks.SavePost, hooks.DefaultPriority, b.onSavePost); err != nil {
		return err
	}
	enqueue := func(ctx context.Context, event any) error {
		ev, ok := event.(*EnqueueScriptsEvent)
		if !ok || ev.Queue == nil {
			return nil
		}
		for _, script := range scripts() {
			if _, err := ev.Queue.Enqueue(script); err != nil {
				return fmt.Errorf("metabox: %s: %w", b.cfg.Key, err)
			}
		}
		return nil
	}
	return d.AddAction(hooks.AdminEnqueueScripts, hooks.DefaultPriority, enqueue)
}

func (b *base) onAddMetaBoxes(_ context.Context, event any) error {
	ev, ok := event.(*AddMetaBoxesEvent)
	if !ok || ev.Screen == nil {
		return nil
	}
	if !b.cfg.Enabled(ev.PostType, ev.Post) {
		return nil
	}
	return ev.Screen.AddMetaBox(b.cfg.Key, b.cfg.Title, b.cfg.Context, b.render)
}

func (b *base) onSavePost(ctx context.Context, event any) error {
	ev, ok := event.(*SavePostEvent)
	if !ok {
		return nil
	}
	err := b.save(ctx, SaveRequest{Post: ev.Post, Form: ev.Form})
	if err != nil {
		b.log.Warn("save failed", zap.Int64("post_id", ev.Post.ID), zap.Error(err))
	}
	return err
}

// authorize runs the save gate. present reports whether the form holds the
// box; when it does not the save is skipped without error.
func (b *base) authorize(ctx context.Context, post storage.Post, form formdata.Values, present bool) (bool, error) {
	if !present {
		return false, nil
	}
	user, _ := security.UserFrom(ctx)
	if !b.deps.Authorizer.Can(ctx, user, b.cfg.Capability, post.ID) {
		return false, fmt.Errorf("%w: %s requires %s", ErrForbidden, b.cfg.Key, b.cfg.Capability)
	}
	token, _ := form.Lookup(b.cfg.Nonce)
	if err := b.deps.Nonces.Verify(ctx, token, b.cfg.Nonce); err != nil {
		return false, fmt.Errorf("metabox: %s: %w", b.cfg.Key, err)
	}
	return true, nil
}

// nonceField mints the hidden nonce input for the current user.
func (b *base) nonceField(ctx context.Context) (render.HiddenField, error) {
	token, err := b.deps.Nonces.Create(ctx, b.cfg.Nonce)
	if err != nil {
		return render.HiddenField{}, fmt.Errorf("metabox: %s: %w", b.cfg.Key, err)
	}
	return render.NonceField(b.cfg.Nonce, token), nil
}

func (b *base) store(ctx context.Context, postID int64, key, value string) error {
	if value == "" {
		if err := b.deps.Store.DeleteMeta(ctx, postID, key); err != nil {
			return fmt.Errorf("metabox: %s: delete %s: %w", b.cfg.Key, key, err)
		}
		b.log.Debug("meta deleted", zap.Int64("post_id", postID), zap.String("meta_key", key))
		return nil
	}
	if err := b.deps.Store.UpdateMeta(ctx, postID, key, value); err != nil {
		return fmt.Errorf("metabox: %s: update %s: %w", b.cfg.Key, key, err)
	}
	b.log.Debug("meta updated", zap.Int64("post_id", postID), zap.String("meta_key", key))
	return nil
}

func (b *base) load(ctx context.Context, postID int64, key string) (string, error) {
	value, _, err := b.deps.Store.GetMeta(ctx, postID, key)
	if err != nil {
		return "", fmt.Errorf("metabox: %s: load %s: %w", b.cfg.Key, key, err)
	}
	return value, nil
}

func (b *base) execute(name string, view any, w io.Writer) error {
	if _, err := b.deps.Templates.RenderTemplate(name, view, w); err != nil {
		return fmt.Errorf("metabox: %s: render: %w", b.cfg.Key, err)
	}
	return nil
}

// AddMetaBoxesEvent is the add_meta_boxes payload.
type AddMetaBoxesEvent struct {
	PostType string
	Post     storage.Post
	Screen   *Screen
}

// SavePostEvent is the save_post payload.
type SavePostEvent struct {
	Post storage.Post
	Form formdata.Values
}

// EnqueueScriptsEvent is the admin_enqueue_scripts payload.
type EnqueueScriptsEvent struct {
	// Page names the admin page being built, for example "post.php".
	Page  string
	Queue *assets.Queue
}
