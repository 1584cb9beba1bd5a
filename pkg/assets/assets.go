// Package assets embeds the browser scripts used by meta boxes and keeps the
// per-screen script queue.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed js/*.js
var embedded embed.FS

const (
	MediaHandle    = "metabox-field-media"
	RepeaterHandle = "metabox-field-repeater"

	MediaFile    = "js/field-media.js"
	RepeaterFile = "js/field-repeater.js"
)

// FS exposes the embedded scripts rooted at the package directory, so
// MediaFile and RepeaterFile resolve directly.
//
//	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(assets.FS())))
func FS() fs.FS {
	return embedded
}

// Script describes one enqueued script.
type Script struct {
	Handle   string
	Src      string
	Deps     []string
	InFooter bool
}

// MediaScript returns the media picker script served under base.
func MediaScript(base string) Script {
	return Script{Handle: MediaHandle, Src: join(base, MediaFile), InFooter: true}
}

// RepeaterScript returns the repeater row script served under base.
func RepeaterScript(base string) Script {
	return Script{Handle: RepeaterHandle, Src: join(base, RepeaterFile), InFooter: true}
}

func join(base, file string) string {
	return strings.TrimRight(base, "/") + "/" + file
}

// Queue collects scripts for one screen. The first registration of a handle
// wins.
type Queue struct {
	mu      sync.Mutex
	order   []string
	scripts map[string]Script
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{scripts: make(map[string]Script)}
}

// Enqueue adds script unless its handle is already queued. It reports whether
// the script was added.
func (q *Queue) Enqueue(script Script) (bool, error) {
	script.Handle = strings.TrimSpace(script.Handle)
	if script.Handle == "" {
		return false, errors.New("assets: script handle is required")
	}
	if strings.TrimSpace(script.Src) == "" {
		return false, fmt.Errorf("assets: script %q: src is required", script.Handle)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.scripts == nil {
		q.scripts = make(map[string]Script)
	}
	if _, exists := q.scripts[script.Handle]; exists {
		return false, nil
	}
	script.Deps = append([]string(nil), script.Deps...)
	q.scripts[script.Handle] = script
	q.order = append(q.order, script.Handle)
	return true, nil
}

// Len returns the number of queued scripts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Scripts returns the queue with every script placed after its dependencies,
// otherwise in enqueue order. Unknown dependencies and cycles are errors.
func (q *Queue) Scripts() ([]Script, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(q.order))
	out := make([]Script, 0, len(q.order))

	var visit func(handle string, from string) error
	visit = func(handle, from string) error {
		script, ok := q.scripts[handle]
		if !ok {
			return fmt.Errorf("assets: script %q depends on unknown %q", from, handle)
		}
		switch state[handle] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("assets: dependency cycle at %q", handle)
		}
		state[handle] = visiting
		for _, dep := range script.Deps {
			if err := visit(dep, handle); err != nil {
				return err
			}
		}
		state[handle] = done
		out = append(out, script)
		return nil
	}

	for _, handle := range q.order {
		if err := visit(handle, handle); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Footer splits scripts into head and footer lists, keeping order.
func Footer(scripts []Script) (head, footer []Script) {
	for _, script := range scripts {
		if script.InFooter {
			footer = append(footer, script)
		} else {
			head = append(head, script)
		}
	}
	return head, footer
}
