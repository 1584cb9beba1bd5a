package metabox

import (
	"context"

	pkgmetabox "github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/orchestrator"
)

// Box is any meta box; alias exported via the root package for convenience.
type Box = pkgmetabox.Box

// Config is the part of a box definition shared by every kind.
type Config = pkgmetabox.Config

// Deps are the host services a box uses.
type Deps = pkgmetabox.Deps

// Runtime is a wired host and the registry behind it.
type Runtime = orchestrator.Runtime

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Build wires a host from options. It is the simplest entry point for
// callers that just want boxes on an edit screen.
func Build(ctx context.Context, options ...orchestrator.Option) (*Runtime, error) {
	return orchestrator.New(options...).Build(ctx)
}

// WithDefaultDefinitions loads the bundled example boxes.
func WithDefaultDefinitions() orchestrator.Option {
	return orchestrator.WithDefinitionsFS(DefaultDefinitions())
}
