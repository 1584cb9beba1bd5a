package template

import (
	"io"
)

// TemplateRenderer renders named templates or inline template strings. Data
// is converted through its JSON form, so struct fields are addressed by
// their json tag names.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
