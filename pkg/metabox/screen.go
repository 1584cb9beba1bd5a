package metabox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-metabox/pkg/render/template"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// RenderFunc writes a box body.
type RenderFunc func(ctx context.Context, w io.Writer, post storage.Post) error

// ScreenBox is one box placed on a Screen.
type ScreenBox struct {
	ID      string
	Title   string
	Context Context
	render  RenderFunc
}

// Screen is the edit screen of one post. Boxes are added to it while the
// add_meta_boxes hook runs.
type Screen struct {
	PostType string
	Post     storage.Post

	mu    sync.Mutex
	boxes []ScreenBox
}

// NewScreen returns an empty screen for post. An empty postType uses the
// post's type.
func NewScreen(postType string, post storage.Post) *Screen {
	if postType == "" {
		postType = post.Type
	}
	return &Screen{PostType: postType, Post: post}
}

// AddMetaBox places a box. Adding an ID twice replaces the earlier box but
// keeps its position.
func (s *Screen) AddMetaBox(id, title string, region Context, fn RenderFunc) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("metabox: screen box id is required")
	}
	if fn == nil {
		return fmt.Errorf("metabox: screen box %q: render func is required", id)
	}
	if region == "" {
		region = DefaultContext
	}
	if !region.Valid() {
		return fmt.Errorf("metabox: screen box %q: unknown context %q", id, region)
	}

	box := ScreenBox{ID: id, Title: title, Context: region, render: fn}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.boxes {
		if s.boxes[i].ID == id {
			s.boxes[i] = box
			return nil
		}
	}
	s.boxes = append(s.boxes, box)
	return nil
}

// Boxes returns the boxes in context, in the order they were added.
func (s *Screen) Boxes(region Context) []ScreenBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ScreenBox
	for _, box := range s.boxes {
		if box.Context == region {
			out = append(out, box)
		}
	}
	return out
}

// Len returns the number of boxes on the screen.
func (s *Screen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boxes)
}

type screenView struct {
	PostID   string              `json:"post_id"`
	PostType string              `json:"post_type"`
	Contexts []screenContextView `json:"contexts"`
}

type screenContextView struct {
	Name  string          `json:"name"`
	Boxes []screenBoxView `json:"boxes"`
}

type screenBoxView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Render writes every box grouped by context (normal, side, advanced)
// through the "screen" template. Empty contexts are omitted.
func (s *Screen) Render(ctx context.Context, w io.Writer, templates template.TemplateRenderer) error {
	if templates == nil {
		return errors.New("metabox: templates are required")
	}
	view := screenView{PostID: s.Post.IDString(), PostType: s.PostType}
	for _, region := range Contexts {
		boxes := s.Boxes(region)
		if len(boxes) == 0 {
			continue
		}
		section := screenContextView{Name: string(region)}
		for _, box := range boxes {
			var buf bytes.Buffer
			if err := box.render(ctx, &buf, s.Post); err != nil {
				return fmt.Errorf("metabox: render box %q: %w", box.ID, err)
			}
			section.Boxes = append(section.Boxes, screenBoxView{ID: box.ID, Title: box.Title, HTML: buf.String()})
		}
		view.Contexts = append(view.Contexts, section)
	}
	if _, err := templates.RenderTemplate("screen", view, w); err != nil {
		return fmt.Errorf("metabox: render screen: %w", err)
	}
	return nil
}
