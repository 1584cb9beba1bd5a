// Package field defines the static form-field definitions meta boxes are built
// from. A Field carries a name, an input type and a small Options bag
// (placeholder, rows, label, choices, default). Definitions are declared in
// code or loaded from definition files and are treated as immutable once a box
// has been constructed around them; renderers and parsers only ever read them.
package field
