// Package formdata parses application/x-www-form-urlencoded bodies without
// losing the order fields were submitted in, and maps bracketed input names
// (base[0][sub]) back onto nested values.
//
// url.Values cannot be used for repeated rows: it groups by key, so once a
// browser script has moved rows around, the only record of the display order
// is the order pairs appear in the body.
package formdata

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// TemplateRow is the index segment used by the hidden row a repeater clones
// new rows from. Pairs under it are never treated as data.
const TemplateRow = "_row"

// Pair is a single submitted key/value.
type Pair struct {
	Key   string
	Value string
}

// Values is an ordered list of submitted pairs.
type Values []Pair

// Parse decodes a urlencoded body, keeping pair order. Like url.ParseQuery it
// keeps going after a malformed pair and reports the first error.
func Parse(body string) (Values, error) {
	var (
		out      Values
		firstErr error
	)
	for body != "" {
		var part string
		part, body, _ = strings.Cut(body, "&")
		if part == "" {
			continue
		}
		if strings.Contains(part, ";") {
			if firstErr == nil {
				firstErr = fmt.Errorf("formdata: invalid semicolon separator in %q", part)
			}
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("formdata: decode key %q: %w", rawKey, err)
			}
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("formdata: decode value for %q: %w", key, err)
			}
			continue
		}
		out = append(out, Pair{Key: key, Value: value})
	}
	return out, firstErr
}

// FromURLValues converts url.Values using sorted keys. Use it only when the
// caller has no ordering to preserve.
func FromURLValues(values url.Values) Values {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out Values
	for _, key := range keys {
		for _, value := range values[key] {
			out = append(out, Pair{Key: key, Value: value})
		}
	}
	return out
}

// Add appends a pair.
func (v *Values) Add(key, value string) {
	*v = append(*v, Pair{Key: key, Value: value})
}

// Lookup returns the first value submitted for key.
func (v Values) Lookup(key string) (string, bool) {
	for _, pair := range v {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// Get returns the first value for key or "".
func (v Values) Get(key string) string {
	value, _ := v.Lookup(key)
	return value
}

// Last returns the last value submitted for key. A hidden "" input followed
// by a checkbox with the same name resolves to the checkbox when checked.
func (v Values) Last(key string) (string, bool) {
	for i := len(v) - 1; i >= 0; i-- {
		if v[i].Key == key {
			return v[i].Value, true
		}
	}
	return "", false
}

// Has reports whether key was submitted.
func (v Values) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// HasBase reports whether any key is base itself or starts with base[.
func (v Values) HasBase(base string) bool {
	prefix := base + "["
	for _, pair := range v {
		if pair.Key == base || strings.HasPrefix(pair.Key, prefix) {
			return true
		}
	}
	return false
}

// Encode serialises the pairs in order.
func (v Values) Encode() string {
	var buf strings.Builder
	for i, pair := range v {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(pair.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(pair.Value))
	}
	return buf.String()
}

// Map collects base[sub]=value pairs into a map, last value winning. ok is
// false when nothing under base was submitted.
func (v Values) Map(base string) (map[string]string, bool) {
	var (
		out   map[string]string
		found bool
	)
	for _, pair := range v {
		name, segments, ok := SplitName(pair.Key)
		if !ok || name != base || len(segments) != 1 {
			continue
		}
		found = true
		if out == nil {
			out = make(map[string]string)
		}
		out[segments[0]] = pair.Value
	}
	return out, found
}

// Rows collects base[index][sub]=value pairs into rows. Rows are ordered by
// the first appearance of their index in the body, not by the index value, and
// the TemplateRow index is skipped. ok is false when nothing under base was
// submitted.
func (v Values) Rows(base string) ([]map[string]string, bool) {
	var (
		rows     []map[string]string
		position = make(map[string]int)
		found    bool
	)
	for _, pair := range v {
		name, segments, ok := SplitName(pair.Key)
		if !ok || name != base {
			continue
		}
		found = true
		if len(segments) != 2 || segments[0] == TemplateRow {
			continue
		}
		idx, seen := position[segments[0]]
		if !seen {
			idx = len(rows)
			position[segments[0]] = idx
			rows = append(rows, make(map[string]string))
		}
		rows[idx][segments[1]] = pair.Value
	}
	return rows, found
}

// Name builds a bracketed input name: Name("k", "0", "img") == "k[0][img]".
// Empty segments are skipped.
func Name(base string, segments ...string) string {
	var buf strings.Builder
	buf.WriteString(base)
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		buf.WriteByte('[')
		buf.WriteString(segment)
		buf.WriteByte(']')
	}
	return buf.String()
}

// SplitName is the inverse of Name. Keys without brackets return the key and
// no segments; malformed brackets return ok=false.
func SplitName(key string) (string, []string, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, nil, key != ""
	}
	base := key[:open]
	if base == "" {
		return "", nil, false
	}

	var segments []string
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	return base, segments, true
}
