package field

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type is the HTML-facing input kind of a field.
type Type string

const (
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeEditor   Type = "editor"
	TypeDate     Type = "date"
	TypeEmail    Type = "email"
	TypeURL      Type = "url"
	TypeNumber   Type = "number"
	TypeTel      Type = "tel"
	TypeColor    Type = "color"
	TypeImage    Type = "image"
	TypeSelect   Type = "select"
	TypeCheckbox Type = "checkbox"
	TypeHidden   Type = "hidden"
)

const (
	// DefaultRows is used for textareas rendered on their own line.
	DefaultRows = 10
	// DefaultGroupRows is used for textareas rendered inside a grouped row.
	DefaultGroupRows = 5

	// StorageDateLayout is the layout date values are persisted with.
	StorageDateLayout = "2006-01-02"
	// DisplayDateLayout is the day-first layout editors commonly type.
	DisplayDateLayout = "02-01-2006"
)

var knownTypes = map[Type]struct{}{
	TypeText: {}, TypeTextarea: {}, TypeEditor: {}, TypeDate: {}, TypeEmail: {},
	TypeURL: {}, TypeNumber: {}, TypeTel: {}, TypeColor: {}, TypeImage: {},
	TypeSelect: {}, TypeCheckbox: {}, TypeHidden: {},
}

// Known reports whether t is one of the supported field types.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Multiline reports whether the type renders as a textarea.
func (t Type) Multiline() bool {
	return t == TypeTextarea || t == TypeEditor
}

// InputType returns the value for the HTML type attribute of an <input>.
// Image fields are plain text inputs picked up by the media script.
func (t Type) InputType() string {
	switch t {
	case TypeImage, "":
		return string(TypeText)
	default:
		return string(t)
	}
}

// Choice is one option of a select field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Options holds the optional presentation settings of a field.
type Options struct {
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Rows        int      `json:"rows,omitempty" yaml:"rows,omitempty"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Choices     []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Class       string   `json:"class,omitempty" yaml:"class,omitempty"`
}

// Field is a single form-field definition.
type Field struct {
	Name    string  `json:"name" yaml:"name"`
	Type    Type    `json:"type" yaml:"type"`
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option mutates a field while it is being constructed.
type Option func(*Field)

// New builds a field definition. An empty type defaults to text.
func New(name string, typ Type, options ...Option) Field {
	f := Field{Name: strings.TrimSpace(name), Type: typ}
	if f.Type == "" {
		f.Type = TypeText
	}
	for _, opt := range options {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Text is shorthand for New(name, TypeText, options...).
func Text(name string, options ...Option) Field {
	return New(name, TypeText, options...)
}

// Textarea is shorthand for New(name, TypeTextarea, options...).
func Textarea(name string, options ...Option) Field {
	return New(name, TypeTextarea, options...)
}

// Image is shorthand for New(name, TypeImage, options...).
func Image(name string, options ...Option) Field {
	return New(name, TypeImage, options...)
}

func WithPlaceholder(placeholder string) Option {
	return func(f *Field) { f.Options.Placeholder = placeholder }
}

func WithRows(rows int) Option {
	return func(f *Field) { f.Options.Rows = rows }
}

func WithLabel(label string) Option {
	return func(f *Field) { f.Options.Label = label }
}

func WithDefault(value string) Option {
	return func(f *Field) { f.Options.Default = value }
}

func WithClass(class string) Option {
	return func(f *Field) { f.Options.Class = class }
}

// Required marks the field as required in the rendered markup.
func Required() Option {
	return func(f *Field) { f.Options.Required = true }
}

// WithChoices sets select choices. Each entry is either "value" or
// "value=Label".
func WithChoices(entries ...string) Option {
	return func(f *Field) {
		for _, entry := range entries {
			value, label, _ := strings.Cut(entry, "=")
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			f.Options.Choices = append(f.Options.Choices, Choice{Value: value, Label: strings.TrimSpace(label)})
		}
	}
}

// Validate checks that the definition can be rendered and parsed back.
func (f Field) Validate() error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return errors.New("field: name is required")
	}
	if strings.ContainsAny(name, "[] \t\r\n") {
		return fmt.Errorf("field: name %q must not contain brackets or whitespace", name)
	}
	if !f.Type.Known() {
		return fmt.Errorf("field: %q has unknown type %q", name, f.Type)
	}
	if f.Type == TypeSelect && len(f.Options.Choices) == 0 {
		return fmt.Errorf("field: select %q requires choices", name)
	}
	if f.Options.Rows < 0 {
		return fmt.Errorf("field: %q rows must not be negative", name)
	}
	return nil
}

// Rows returns the textarea row count, falling back to fallback.
func (f Field) Rows(fallback int) int {
	if f.Options.Rows > 0 {
		return f.Options.Rows
	}
	return fallback
}

// DisplayLabel returns the label, or a title-cased name when unset.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Options.Label); label != "" {
		return label
	}
	words := strings.FieldsFunc(f.Name, func(r rune) bool { return r == '_' || r == '-' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// HasChoice reports whether value matches one of the select choices.
func (f Field) HasChoice(value string) bool {
	for _, choice := range f.Options.Choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}

// ValidateAll validates fields and rejects duplicate names.
func ValidateAll(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("field: duplicate name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// NormalizeDate converts a day-first or ISO date into the storage layout.
// Values that match neither layout are returned unchanged with ok=false.
func NormalizeDate(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range []string{StorageDateLayout, DisplayDateLayout} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(StorageDateLayout), true
		}
	}
	return trimmed, false
}
