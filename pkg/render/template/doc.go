// Package template defines the engine contract meta boxes render through.
// The pongo2 implementation lives in the gotemplate subpackage.
package template
