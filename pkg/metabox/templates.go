package metabox

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-metabox/pkg/render/template/gotemplate"
)

//go:embed templates/*.html templates/partials/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in box templates: box_simple, box_group,
// box_repeater, screen and partials/field.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// NewTemplates returns a pongo2 engine over overrides followed by
// TemplatesFS, so an override file replaces the built-in one of the same
// name.
func NewTemplates(overrides ...fs.FS) (*gotemplate.Engine, error) {
	options := make([]gotemplate.Option, 0, len(overrides)+1)
	for _, fsys := range overrides {
		options = append(options, gotemplate.WithFS(fsys))
	}
	options = append(options, gotemplate.WithFS(TemplatesFS()))
	return gotemplate.New(options...)
}
