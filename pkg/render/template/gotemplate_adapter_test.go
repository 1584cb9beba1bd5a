package template_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-metabox/pkg/render/template/gotemplate"
	"github.com/goliatone/go-metabox/pkg/testsupport"
)

var templates = fstest.MapFS{
	"hello.html":      {Data: []byte(`Hello {{ name }}`)},
	"use-global.html": {Data: []byte(`env={{ settings.env }}`)},
	"use-filter.html": {Data: []byte(`{{ name|shout }}`)},
	"cell.html":       {Data: []byte(`<td colspan="{{ colspan }}">{{ value }}</td>`)},
	"row.html":        {Data: []byte(`{% for c in cells %}{% include "cell.html" with colspan=c.colspan value=c.value %}{% endfor %}`)},
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	if result != "Hello Ada" || written != result {
		t.Fatalf("unexpected output result=%q written=%q", result, written)
	}
}

func TestEngine_StructsUseJSONNamesAndEscape(t *testing.T) {
	engine := newEngine(t)

	type cell struct {
		Colspan string `json:"colspan"`
		Value   string `json:"value"`
	}
	data := struct {
		Cells []cell `json:"cells"`
	}{Cells: []cell{{Colspan: "2", Value: `<b>"x"</b>`}}}

	got, err := engine.RenderTemplate("row", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<td colspan="2">&lt;b&gt;&quot;x&quot;&lt;/b&gt;</td>`
	if got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=staging" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatal("expected duplicate filter error")
	}

	got, err := engine.Render("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_RenderInlineString(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.Render(`{{ n|trim }}`, map[string]any{"n": "  x  "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "x" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_EarlierSourceShadowsLater(t *testing.T) {
	override := fstest.MapFS{"hello.html": {Data: []byte(`Hi {{ name }}`)}}
	engine, err := gotemplate.New(gotemplate.WithFS(override), gotemplate.WithFS(templates))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hi Ada" {
		t.Fatalf("expected override, got %q", got)
	}
	// Files only the later source holds still resolve.
	if got, err := engine.RenderTemplate("cell.html", map[string]any{"colspan": 1, "value": "v"}); err != nil || got != `<td colspan="1">v</td>` {
		t.Fatalf("unexpected fallback render %q (%v)", got, err)
	}
}

func TestEngine_RejectsNonObjectData(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("hello", []string{"Ada"}); err == nil {
		t.Fatal("expected slice data to be rejected")
	}
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatal("expected missing template error")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatal("expected error without template sources")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(gotemplate.WithFS(templates))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
