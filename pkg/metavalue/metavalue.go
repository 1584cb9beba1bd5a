// Package metavalue encodes grouped and repeated field values into the JSON
// blobs stored under a single metadata key.
package metavalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Group is a sub-key -> value mapping stored under one key.
type Group map[string]string

// Rows is an ordered list of groups stored under one key. Order is the
// display order.
type Rows []Group

// Get returns the value for key or fallback when missing.
func (g Group) Get(key, fallback string) string {
	if value, ok := g[key]; ok {
		return value
	}
	return fallback
}

// Empty reports whether every value is blank.
func (g Group) Empty() bool {
	for _, value := range g {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// EncodeGroup serialises a group. HTML and non-ASCII characters are written
// verbatim.
func EncodeGroup(group Group) (string, error) {
	if group == nil {
		group = Group{}
	}
	return encode(group)
}

// EncodeRows serialises rows, preserving their order.
func EncodeRows(rows Rows) (string, error) {
	if rows == nil {
		rows = Rows{}
	}
	return encode(rows)
}

func encode(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("metavalue: encode: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DecodeGroup parses a stored group. Blank or malformed input yields an empty
// group so rendering never fails on bad data.
func DecodeGroup(raw string) Group {
	group, err := DecodeGroupStrict(raw)
	if err != nil {
		return Group{}
	}
	return group
}

// DecodeGroupStrict is DecodeGroup with error reporting. Non-string scalars
// are kept in their JSON text form.
func DecodeGroupStrict(raw string) (Group, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Group{}, nil
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("metavalue: decode group: %w", err)
	}
	return groupFromRaw(decoded), nil
}

// DecodeRows parses stored rows. Blank or malformed input yields no rows.
func DecodeRows(raw string) Rows {
	rows, err := DecodeRowsStrict(raw)
	if err != nil {
		return Rows{}
	}
	return rows
}

// DecodeRowsStrict is DecodeRows with error reporting. Legacy blobs written as
// an object keyed by row index are accepted in key order.
func DecodeRowsStrict(raw string) (Rows, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Rows{}, nil
	}

	var list []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		rows := make(Rows, 0, len(list))
		for _, entry := range list {
			rows = append(rows, groupFromRaw(entry))
		}
		return rows, nil
	}

	keyed, err := decodeKeyedRows(trimmed)
	if err != nil {
		return nil, fmt.Errorf("metavalue: decode rows: %w", err)
	}
	return keyed, nil
}

// decodeKeyedRows walks {"0": {...}, "3": {...}} with a token decoder so the
// document order of the keys is kept.
func decodeKeyedRows(raw string) (Rows, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected array or object, got %v", tok)
	}

	var rows Rows
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var entry map[string]json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		rows = append(rows, groupFromRaw(entry))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rows, nil
}

func groupFromRaw(raw map[string]json.RawMessage) Group {
	group := make(Group, len(raw))
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			group[key] = text
			continue
		}
		if string(value) == "null" {
			group[key] = ""
			continue
		}
		group[key] = string(value)
	}
	return group
}
