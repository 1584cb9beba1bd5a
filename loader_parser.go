package metabox

import (
	"io/fs"

	"github.com/goliatone/go-metabox/pkg/definition"
)

// LoadDefinitions reads every .yaml, .yml and .json definition file in fsys.
func LoadDefinitions(fsys fs.FS) (*definition.Set, error) {
	return definition.LoadFS(fsys)
}

// ParseDefinitions decodes one definition document. source names it in
// errors and selects JSON decoding when it ends in .json.
func ParseDefinitions(data []byte, source string) ([]definition.Definition, error) {
	return definition.Parse(data, source)
}
