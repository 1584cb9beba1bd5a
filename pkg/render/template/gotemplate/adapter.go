// Package gotemplate implements template.TemplateRenderer with pongo2. Box
// markup and admin pages are both rendered through it.
package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-metabox/pkg/render/template"
)

// Extension is appended to template names that lack it.
const Extension = ".html"

// Option configures an Engine.
type Option func(*Engine)

// WithFS adds a template source. Sources are searched in the order given, so
// a file in an earlier source shadows the same path in a later one.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		if files != nil {
			e.sources = append(e.sources, files)
		}
	}
}

// Engine renders named templates from its sources and inline strings.
// Parsed files are cached by the underlying pongo2 set.
type Engine struct {
	// mu guards set.Globals, which executions read.
	mu      sync.RWMutex
	sources []fs.FS
	set     *pongo2.TemplateSet
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine over the given sources; at least one is required.
func New(options ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if len(e.sources) == 0 {
		return nil, errors.New("gotemplate: at least one template source is required")
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(e.sources))
	for _, src := range e.sources {
		loaders = append(loaders, pongo2.NewFSLoader(src))
	}
	e.set = pongo2.NewSet("metabox", loaders...)
	registerBuiltinFilters()
	return e, nil
}

// Render renders name as inline content when it holds template tags and as a
// named template otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders the template at name, adding Extension if missing.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	path := strings.TrimSpace(name)
	if !strings.HasSuffix(path, Extension) {
		path += Extension
	}
	tmpl, err := e.set.FromCache(path)
	if err != nil {
		return "", fmt.Errorf("gotemplate: load %q: %w", path, err)
	}
	return e.execute(tmpl, path, data, out)
}

// RenderString parses and renders content. The result is not cached.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.execute(tmpl, "inline template", data, out)
}

func (e *Engine) execute(tmpl *pongo2.Template, label string, data any, out []io.Writer) (string, error) {
	ctx, err := contextOf(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", label, err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", label, err)
	}

	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// RegisterFilter adds fn as a pongo2 filter. pongo2 filters are global to the
// process, so a name can only be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function are required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	ctx, err := contextOf(data)
	if err != nil {
		return fmt.Errorf("gotemplate: global context: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set.Globals.Update(ctx)
	return nil
}

// contextOf turns data into a pongo2 context through its JSON encoding, so
// templates address struct fields by json tag.
func contextOf(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	var ctx map[string]any
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("data must encode to a JSON object, got %T", data)
	}
	return pongo2.Context(ctx), nil
}

var builtinFilters sync.Once

func registerBuiltinFilters() {
	builtinFilters.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.TrimSpace(in.String())), nil
			})
		}
	})
}
