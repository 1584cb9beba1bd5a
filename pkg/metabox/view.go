package metabox

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/render"
)

// Numbers are passed to templates as strings; pongo2 prints floats with six
// decimals.

type boxView struct {
	Key     string               `json:"key"`
	Title   string               `json:"title"`
	Kind    string               `json:"kind"`
	Hidden  []render.HiddenField `json:"hidden"`
	Fields  []fieldView          `json:"fields,omitempty"`
	Rows    []rowView            `json:"rows,omitempty"`
	AddText string               `json:"add_text,omitempty"`
}

type rowView struct {
	Class    string      `json:"class"`
	Index    string      `json:"index,omitempty"`
	Template bool        `json:"template,omitempty"`
	Cells    []fieldView `json:"cells"`
}

type choiceView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type fieldView struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	InputType   string       `json:"input_type"`
	Value       string       `json:"value"`
	Label       string       `json:"label,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Rows        string       `json:"rows,omitempty"`
	Class       string       `json:"class"`
	Required    bool         `json:"required,omitempty"`
	Checked     bool         `json:"checked,omitempty"`
	Choices     []choiceView `json:"choices,omitempty"`
	Colspan     string       `json:"colspan,omitempty"`
}

// newFieldView builds the template data for one input. rows is the textarea
// fallback for the surrounding layout; id may be empty.
func newFieldView(f field.Field, name, id, value string, rows int, extraClass string) fieldView {
	view := fieldView{
		ID:          id,
		Name:        name,
		Type:        string(f.Type),
		InputType:   f.Type.InputType(),
		Value:       value,
		Label:       strings.TrimSpace(f.Options.Label),
		Placeholder: f.Options.Placeholder,
		Class:       render.ClassList("large-text", f.Options.Class, extraClass),
		Required:    f.Options.Required,
	}

	switch f.Type {
	case field.TypeTextarea, field.TypeEditor:
		view.Rows = strconv.Itoa(f.Rows(rows))
	case field.TypeCheckbox:
		view.Checked = value != ""
		view.Class = render.ClassList(f.Options.Class, extraClass)
	case field.TypeSelect:
		for _, choice := range f.Options.Choices {
			label := choice.Label
			if label == "" {
				label = choice.Value
			}
			view.Choices = append(view.Choices, choiceView{
				Value:    choice.Value,
				Label:    label,
				Selected: choice.Value == value,
			})
		}
	case field.TypeDate:
		if normalized, ok := field.NormalizeDate(value); ok {
			view.Value = normalized
		}
	}
	return view
}

// inputID turns a bracketed input name into an id attribute value.
func inputID(name string) string {
	replacer := strings.NewReplacer("[", "-", "]", "")
	return "metabox-" + replacer.Replace(name)
}
