// Package definition loads meta box declarations from YAML or JSON files so
// boxes can be added without writing Go.
//
//	boxes:
//	  - key: my_part_title
//	    title: My title
//	    kind: group
//	    rows:
//	      - [{name: part_1, options: {placeholder: Part 1}}, {name: part_2}]
package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-metabox/pkg/field"
	"github.com/goliatone/go-metabox/pkg/metabox"
)

// Definition declares one box.
type Definition struct {
	metabox.Config `json:",inline" yaml:",inline"`

	// Kind defaults to group when Rows is set and simple otherwise.
	Kind   metabox.Kind    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Fields []field.Field   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Rows   [][]field.Field `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Source is the file the definition was read from.
	Source string `json:"-" yaml:"-"`
}

type documentFile struct {
	Boxes []Definition `json:"boxes" yaml:"boxes"`
}

// Set is an ordered collection of definitions with unique keys.
type Set struct {
	definitions []Definition
	index       map[string]int
}

// Definitions returns the definitions in load order: by file path, then by
// position in the file.
func (s *Set) Definitions() []Definition {
	if s == nil {
		return nil
	}
	return append([]Definition(nil), s.definitions...)
}

// Lookup returns the definition for key.
func (s *Set) Lookup(key string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	idx, ok := s.index[key]
	if !ok {
		return Definition{}, false
	}
	return s.definitions[idx], true
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.definitions)
}

func (s *Set) add(def Definition) error {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if prev, exists := s.index[def.Key]; exists {
		return fmt.Errorf("definition: duplicate box %q (file %s, first declared in %s)", def.Key, def.Source, s.definitions[prev].Source)
	}
	s.index[def.Key] = len(s.definitions)
	s.definitions = append(s.definitions, def)
	return nil
}

// LoadFS walks fsys and parses every .yaml, .yml and .json file. A nil fsys
// yields an empty set.
func LoadFS(fsys fs.FS) (*Set, error) {
	set := &Set{index: make(map[string]int)}
	if fsys == nil {
		return set, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		defs, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, def := range defs {
			if err := set.add(def); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Parse decodes one file. JSON is used for .json sources, YAML otherwise.
// Unknown keys are rejected so typos surface at load time.
func Parse(data []byte, source string) ([]Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("definition: file %s is empty", source)
	}

	var doc documentFile
	if strings.EqualFold(filepath.Ext(source), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("definition: parse %s: %w", source, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("definition: parse %s: %w", source, err)
		}
	}

	out := make([]Definition, 0, len(doc.Boxes))
	for i, def := range doc.Boxes {
		def.Source = source
		normalised, err := normalise(def)
		if err != nil {
			return nil, fmt.Errorf("definition: %s box #%d: %w", source, i+1, err)
		}
		out = append(out, normalised)
	}
	return out, nil
}

func normalise(def Definition) (Definition, error) {
	def.Config = def.Config.WithDefaults()
	if err := def.Config.Validate(); err != nil {
		return Definition{}, err
	}
	if def.Kind == "" {
		def.Kind = metabox.KindSimple
		if len(def.Rows) > 0 {
			def.Kind = metabox.KindGroup
		}
	}
	for i := range def.Fields {
		def.Fields[i] = withType(def.Fields[i])
	}
	for _, row := range def.Rows {
		for i := range row {
			row[i] = withType(row[i])
		}
	}

	switch def.Kind {
	case metabox.KindSimple, metabox.KindRepeater:
		if len(def.Rows) > 0 {
			return Definition{}, fmt.Errorf("%s box %q declares rows; use fields", def.Kind, def.Key)
		}
		if len(def.Fields) == 0 {
			return Definition{}, fmt.Errorf("%s box %q has no fields", def.Kind, def.Key)
		}
	case metabox.KindGroup:
		if len(def.Fields) > 0 {
			return Definition{}, fmt.Errorf("group box %q declares fields; use rows", def.Key)
		}
		if len(def.Rows) == 0 {
			return Definition{}, fmt.Errorf("group box %q has no rows", def.Key)
		}
	default:
		return Definition{}, fmt.Errorf("box %q has unknown kind %q", def.Key, def.Kind)
	}
	return def, nil
}

func withType(f field.Field) field.Field {
	if f.Type == "" {
		f.Type = field.TypeText
	}
	return f
}

// Build turns the definition into a box.
func (d Definition) Build(deps metabox.Deps) (metabox.Box, error) {
	switch d.Kind {
	case metabox.KindGroup:
		return metabox.NewGroup(d.Config, d.Rows, deps)
	case metabox.KindRepeater:
		return metabox.NewRepeater(d.Config, d.Fields, deps)
	case metabox.KindSimple, "":
		return metabox.NewSimple(d.Config, d.Fields, deps)
	default:
		return nil, fmt.Errorf("definition: box %q has unknown kind %q", d.Key, d.Kind)
	}
}

// Register builds every definition and adds it to registry.
func (s *Set) Register(registry *metabox.Registry, deps metabox.Deps) error {
	if registry == nil {
		return errors.New("definition: registry is required")
	}
	for _, def := range s.Definitions() {
		box, err := def.Build(deps)
		if err != nil {
			return fmt.Errorf("definition: build %q (file %s): %w", def.Key, def.Source, err)
		}
		if err := registry.Register(box); err != nil {
			return fmt.Errorf("definition: %s: %w", def.Source, err)
		}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
