package metabox

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// Context is the screen region a box is placed in.
type Context string

const (
	ContextNormal   Context = "normal"
	ContextSide     Context = "side"
	ContextAdvanced Context = "advanced"
)

// Contexts lists the regions in render order.
var Contexts = []Context{ContextNormal, ContextSide, ContextAdvanced}

// Valid reports whether c is a known region.
func (c Context) Valid() bool {
	return slices.Contains(Contexts, c)
}

// Kind identifies how a box stores its values.
type Kind string

const (
	KindSimple   Kind = "simple"
	KindGroup    Kind = "group"
	KindRepeater Kind = "repeater"
)

// Defaults applied by Config.WithDefaults.
const (
	DefaultCapability = security.CapPublishPosts
	DefaultContext    = ContextAdvanced
)

// DefaultEnables is the post types a box appears on when Enables is empty.
var DefaultEnables = []string{"post", "page"}

// Config is the part of a box definition shared by every kind.
type Config struct {
	// Key names the box. Group and Repeater boxes store their value under it.
	Key   string `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`
	// Context places the box on the screen.
	Context Context `json:"context,omitempty" yaml:"context,omitempty"`
	// Capability is required to save the box.
	Capability string `json:"capability,omitempty" yaml:"capability,omitempty"`
	// Enables lists post types, post IDs or post slugs the box appears on.
	Enables []string `json:"enables,omitempty" yaml:"enables,omitempty"`
	// Nonce is both the hidden input name and the nonce action.
	Nonce string `json:"nonce,omitempty" yaml:"nonce,omitempty"`
}

// NonceName returns the default nonce name for key.
func NonceName(key string) string {
	return "_" + strings.TrimSpace(key) + "_nonce"
}

// WithDefaults returns a copy with empty settings filled in.
func (c Config) WithDefaults() Config {
	c.Key = strings.TrimSpace(c.Key)
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		c.Title = c.Key
	}
	if c.Context == "" {
		c.Context = DefaultContext
	}
	if strings.TrimSpace(c.Capability) == "" {
		c.Capability = DefaultCapability
	}
	if len(c.Enables) == 0 {
		c.Enables = slices.Clone(DefaultEnables)
	} else {
		enables := make([]string, 0, len(c.Enables))
		for _, entry := range c.Enables {
			if trimmed := strings.TrimSpace(entry); trimmed != "" {
				enables = append(enables, trimmed)
			}
		}
		c.Enables = enables
	}
	if strings.TrimSpace(c.Nonce) == "" {
		c.Nonce = NonceName(c.Key)
	}
	return c
}

// Validate checks a defaulted config.
func (c Config) Validate() error {
	if c.Key == "" {
		return errors.New("metabox: key is required")
	}
	if strings.ContainsAny(c.Key, "[] \t\r\n") {
		return fmt.Errorf("metabox: key %q must not contain brackets or whitespace", c.Key)
	}
	if !c.Context.Valid() {
		return fmt.Errorf("metabox: %s: unknown context %q", c.Key, c.Context)
	}
	return nil
}

// Enabled reports whether the box belongs on post's edit screen: Enables
// names the post type, the decimal post ID or the post slug.
func (c Config) Enabled(postType string, post storage.Post) bool {
	if postType == "" {
		postType = post.Type
	}
	for _, entry := range c.Enables {
		switch entry {
		case postType, post.IDString():
			return true
		}
		if post.Name != "" && entry == post.Name {
			return true
		}
	}
	return false
}
