// Package sanitize cleans submitted field values before they reach the
// metadata store. Plain-text fields lose all markup, textareas keep their line
// breaks, and rich-text editor fields keep a user-generated-content subset of
// HTML.
package sanitize

import (
	"html"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-metabox/pkg/field"
)

var (
	policyOnce  sync.Once
	stripPolicy *bluemonday.Policy
	richPolicy  *bluemonday.Policy

	whitespaceRun = regexp.MustCompile(`[\r\n\t ]+`)
	inlineSpace   = regexp.MustCompile(`[\t ]+`)
	octets        = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	hexColor      = regexp.MustCompile(`^#([A-Fa-f0-9]{3}){1,2}$`)
	decimal       = regexp.MustCompile(DecimalPattern)
)

// DecimalPattern is the form a number field value is stored in.
const DecimalPattern = `^-?[0-9]+(\.[0-9]+)?$`

// maxStripPasses bounds the strip and unescape loop for nested entities.
const maxStripPasses = 4

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()

		rich := bluemonday.UGCPolicy()
		rich.AllowAttrs("class").Globally()
		rich.AllowElements("figure", "figcaption")
		richPolicy = rich
	})
	return stripPolicy, richPolicy
}

// Text strips markup and collapses all whitespace, line breaks included.
func Text(value string) string {
	return clean(value, false)
}

// Textarea strips markup but keeps line breaks, normalised to "\n".
func Textarea(value string) string {
	return clean(value, true)
}

// RichText keeps safe HTML formatting for editor fields.
func RichText(value string) string {
	if !utf8.ValidString(value) {
		return ""
	}
	_, rich := policies()
	return strings.TrimSpace(rich.Sanitize(value))
}

func clean(value string, keepNewlines bool) string {
	if value == "" || !utf8.ValidString(value) {
		return ""
	}

	out := value
	if strings.ContainsAny(out, "<>&") {
		out = stripTags(out)
	}

	if keepNewlines {
		out = strings.ReplaceAll(out, "\r\n", "\n")
		out = strings.ReplaceAll(out, "\r", "\n")
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		}
		out = strings.Join(lines, "\n")
	} else {
		out = whitespaceRun.ReplaceAllString(out, " ")
	}
	out = strings.TrimSpace(out)

	if octets.MatchString(out) {
		out = octets.ReplaceAllString(out, "")
		out = strings.TrimSpace(inlineSpace.ReplaceAllString(out, " "))
	}
	return out
}

// stripTags removes markup, then decodes entities so "&" stays readable.
// Decoding can surface tags that were entity-encoded, so the pair repeats
// until the text is stable. Text that never settles keeps its escaping.
func stripTags(value string) string {
	strip, _ := policies()
	out := value
	for range maxStripPasses {
		next := html.UnescapeString(strip.Sanitize(out))
		if next == out {
			return out
		}
		out = next
	}
	return strip.Sanitize(out)
}

// URL accepts absolute http and https URLs and mailto addresses. Anything
// else sanitizes to "".
func URL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\r\n<>\"'") {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return ""
		}
	case "mailto":
		if parsed.Opaque == "" {
			return ""
		}
	default:
		return ""
	}
	return parsed.String()
}

// Email returns the bare lower-cased address or "" when it does not parse.
func Email(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return ""
	}
	return strings.ToLower(addr.Address)
}

// Number returns value when it is a plain decimal literal: an optional minus
// sign, digits and an optional fraction. Exponents, hex and NaN/Inf spellings
// sanitize to "".
func Number(value string) string {
	trimmed := strings.TrimSpace(value)
	if !decimal.MatchString(trimmed) {
		return ""
	}
	return trimmed
}

// Color accepts #rgb and #rrggbb hex colours.
func Color(value string) string {
	trimmed := strings.TrimSpace(value)
	if !hexColor.MatchString(trimmed) {
		return ""
	}
	return strings.ToLower(trimmed)
}

// Field sanitizes raw according to the definition's type.
func Field(f field.Field, raw string) string {
	switch f.Type {
	case field.TypeTextarea:
		return Textarea(raw)
	case field.TypeEditor:
		return RichText(raw)
	case field.TypeURL:
		return URL(raw)
	case field.TypeEmail:
		return Email(raw)
	case field.TypeNumber:
		return Number(raw)
	case field.TypeColor:
		return Color(raw)
	case field.TypeCheckbox:
		if strings.TrimSpace(raw) == "" {
			return ""
		}
		return "1"
	case field.TypeSelect:
		value := strings.TrimSpace(raw)
		if f.HasChoice(value) {
			return value
		}
		return ""
	case field.TypeDate:
		value := Text(raw)
		if value == "" {
			return ""
		}
		if normalized, ok := field.NormalizeDate(value); ok {
			return normalized
		}
		return ""
	default:
		return Text(raw)
	}
}
