package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/definition"
	"github.com/goliatone/go-metabox/pkg/hooks"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/render/template"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
)

// BoxFactory builds a box once the shared dependencies are known.
type BoxFactory func(deps metabox.Deps) (metabox.Box, error)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithStore injects the metadata store. Defaults to an in-memory store.
func WithStore(store storage.MetaStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithNonces injects the nonce signer. Defaults to a signer with a random
// per-process secret.
func WithNonces(nonces security.Nonces) Option {
	return func(o *Orchestrator) {
		o.nonces = nonces
	}
}

// WithAuthorizer injects the capability check. Defaults to the built-in roles.
func WithAuthorizer(authorizer security.Authorizer) Option {
	return func(o *Orchestrator) {
		o.authorizer = authorizer
	}
}

// WithTemplates injects a template renderer, replacing the embedded set.
func WithTemplates(templates template.TemplateRenderer) Option {
	return func(o *Orchestrator) {
		o.templates = templates
	}
}

// WithTemplateFS layers fsys over the embedded templates. Later calls take
// precedence over earlier ones. Ignored when WithTemplates is used.
func WithTemplateFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		if fsys != nil {
			o.templateFS = append([]fs.FS{fsys}, o.templateFS...)
		}
	}
}

// WithDefinitionsFS loads box definitions from fsys.
func WithDefinitionsFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		if fsys != nil {
			o.definitions = append(o.definitions, fsys)
		}
	}
}

// WithBox registers a box built in code. Boxes register after definitions,
// in call order.
func WithBox(factory BoxFactory) Option {
	return func(o *Orchestrator) {
		if factory != nil {
			o.factories = append(o.factories, factory)
		}
	}
}

// WithDispatcher shares a hook dispatcher with other components.
func WithDispatcher(d *hooks.Dispatcher) Option {
	return func(o *Orchestrator) {
		o.dispatcher = d
	}
}

// WithLogger sets the logger handed to boxes and the host.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithAssetBase sets the URL prefix scripts are served under.
func WithAssetBase(base string) Option {
	return func(o *Orchestrator) {
		o.assetBase = base
	}
}

// Orchestrator collects the configuration of a host. It applies sensible
// defaults (memory store, random nonce secret, embedded templates) while
// remaining open to dependency injection.
type Orchestrator struct {
	store       storage.MetaStore
	nonces      security.Nonces
	authorizer  security.Authorizer
	templates   template.TemplateRenderer
	templateFS  []fs.FS
	definitions []fs.FS
	factories   []BoxFactory
	dispatcher  *hooks.Dispatcher
	logger      *zap.Logger
	assetBase   string

	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Runtime is a wired host and everything it was built from.
type Runtime struct {
	Deps        metabox.Deps
	Registry    *metabox.Registry
	Host        *metabox.Host
	Definitions []*definition.Set
}

// Build loads definitions, constructs code-defined boxes, registers them all
// and returns the host they are wired into.
func (o *Orchestrator) Build(ctx context.Context) (*Runtime, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	deps := metabox.Deps{
		Store:      o.store,
		Nonces:     o.nonces,
		Authorizer: o.authorizer,
		Templates:  o.templates,
		Logger:     o.logger,
		AssetBase:  o.assetBase,
	}
	registry := metabox.NewRegistry()
	runtime := &Runtime{Deps: deps, Registry: registry}

	for _, fsys := range o.definitions {
		set, err := definition.LoadFS(fsys)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load definitions: %w", err)
		}
		if err := set.Register(registry, deps); err != nil {
			return nil, fmt.Errorf("orchestrator: register definitions: %w", err)
		}
		runtime.Definitions = append(runtime.Definitions, set)
	}
	for i, factory := range o.factories {
		box, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: build box %d: %w", i, err)
		}
		if err := registry.Register(box); err != nil {
			return nil, fmt.Errorf("orchestrator: register box: %w", err)
		}
	}

	host, err := metabox.NewHost(registry, o.templates,
		metabox.WithDispatcher(o.dispatcher),
		metabox.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: host: %w", err)
	}
	runtime.Host = host

	o.logger.Debug("host built",
		zap.Int("boxes", registry.Len()),
		zap.Int("definition_sets", len(runtime.Definitions)))
	return runtime, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.store == nil {
		o.store = memory.New()
	}
	if o.authorizer == nil {
		o.authorizer = security.NewRoleAuthorizer(nil)
	}
	if o.dispatcher == nil {
		o.dispatcher = hooks.New()
	}
	if o.assetBase == "" {
		o.assetBase = metabox.DefaultAssetBase
	}
	if o.nonces == nil {
		secret, err := security.RandomSecret()
		if err == nil {
			o.nonces, err = security.NewJWTNonces(secret)
		}
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default nonces: %w", err)
		}
	}
	if o.templates == nil {
		templates, err := metabox.NewTemplates(o.templateFS...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default templates: %w", err)
		} else {
			o.templates = templates
		}
	}

	o.defaultsApplied = true
}
