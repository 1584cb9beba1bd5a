// Package hooks is a small action dispatcher. Components register callbacks
// against named hooks with a priority; firing a hook runs every callback in
// ascending priority, ties broken by registration order.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Hook names fired by the edit screen.
const (
	AddMetaBoxes        = "add_meta_boxes"
	SavePost            = "save_post"
	AdminEnqueueScripts = "admin_enqueue_scripts"
)

// DefaultPriority is used by AddAction when callers have no preference.
const DefaultPriority = 10

// Action handles a fired hook. The event type depends on the hook.
type Action func(ctx context.Context, event any) error

type entry struct {
	priority int
	order    int
	action   Action
}

// Dispatcher stores actions by hook name.
type Dispatcher struct {
	mu      sync.RWMutex
	actions map[string][]entry
	seq     int
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{actions: make(map[string][]entry)}
}

// AddAction registers action under hook.
func (d *Dispatcher) AddAction(hook string, priority int, action Action) error {
	name := strings.TrimSpace(hook)
	if name == "" {
		return errors.New("hooks: hook name is required")
	}
	if action == nil {
		return fmt.Errorf("hooks: action for %q is nil", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions[name] = append(d.actions[name], entry{priority: priority, order: d.seq, action: action})
	d.seq++
	return nil
}

// Do fires hook. Every action runs even when an earlier one fails; failures
// are joined into the returned error.
func (d *Dispatcher) Do(ctx context.Context, hook string, event any) error {
	d.mu.RLock()
	entries := append([]entry(nil), d.actions[hook]...)
	d.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority == entries[j].priority {
			return entries[i].order < entries[j].order
		}
		return entries[i].priority < entries[j].priority
	})

	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.action(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Has reports whether any action is registered for hook.
func (d *Dispatcher) Has(hook string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.actions[hook]) > 0
}

// Count returns the number of actions registered for hook.
func (d *Dispatcher) Count(hook string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.actions[hook])
}
