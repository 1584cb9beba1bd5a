package metabox

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-metabox/pkg/hooks"
)

// Registry stores boxes by key and rejects boxes whose metadata keys would
// overwrite each other.
type Registry struct {
	mu    sync.RWMutex
	boxes map[string]Box
	order []string
	owner map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		boxes: make(map[string]Box),
		owner: make(map[string]string),
	}
}

// StorageKeys lists the metadata keys box writes: the field names for a
// Simple box, the box key otherwise.
func StorageKeys(box Box) []string {
	if box.Kind() != KindSimple {
		return []string{box.Config().Key}
	}
	fields := box.Fields()
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Name)
	}
	return keys
}

// Register adds a box. Duplicate box keys and shared metadata keys return an
// error.
func (r *Registry) Register(box Box) error {
	if box == nil {
		return fmt.Errorf("metabox: box is required")
	}
	key := box.Config().Key
	if key == "" {
		return fmt.Errorf("metabox: box key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.boxes[key]; exists {
		return fmt.Errorf("metabox: box %q already registered", key)
	}
	storageKeys := StorageKeys(box)
	for _, metaKey := range storageKeys {
		if other, taken := r.owner[metaKey]; taken {
			return fmt.Errorf("metabox: box %q: meta key %q already used by %q", key, metaKey, other)
		}
	}
	for _, metaKey := range storageKeys {
		r.owner[metaKey] = key
	}
	r.boxes[key] = box
	r.order = append(r.order, key)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(box Box) {
	if err := r.Register(box); err != nil {
		panic(err)
	}
}

// Get retrieves a box by key.
func (r *Registry) Get(key string) (Box, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	box, ok := r.boxes[key]
	if !ok {
		return nil, fmt.Errorf("metabox: box %q not found", key)
	}
	return box, nil
}

// Owner returns the key of the box that writes metaKey.
func (r *Registry) Owner(metaKey string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.owner[metaKey]
	return key, ok
}

// Boxes returns the boxes in registration order.
func (r *Registry) Boxes() []Box {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Box, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.boxes[key])
	}
	return out
}

// List returns the sorted box keys.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.boxes))
	for key := range r.boxes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered boxes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boxes)
}

// Init wires every box, in registration order, into d.
func (r *Registry) Init(d *hooks.Dispatcher) error {
	for _, box := range r.Boxes() {
		if err := box.Init(d); err != nil {
			return fmt.Errorf("metabox: init %q: %w", box.Config().Key, err)
		}
	}
	return nil
}
