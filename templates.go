package metabox

import (
	"embed"
	"io/fs"

	pkgmetabox "github.com/goliatone/go-metabox/pkg/metabox"
)

//go:embed definitions/*.yaml
var embeddedDefinitions embed.FS

// EmbeddedTemplates exposes the built-in box templates so callers can reuse
// or extend them without importing the metabox package directly.
func EmbeddedTemplates() fs.FS {
	return pkgmetabox.TemplatesFS()
}

// DefaultDefinitions exposes the bundled example box definitions.
func DefaultDefinitions() fs.FS {
	sub, err := fs.Sub(embeddedDefinitions, "definitions")
	if err != nil {
		return embeddedDefinitions
	}
	return sub
}
