package contact

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSourceNotFound is returned when switching to a source that does not
// exist or holds no contacts.
var ErrSourceNotFound = errors.New("contact source not found")

// DefaultSource is the config-origin collection every registry starts
// from; the active pointer falls back to it when its target is cleared.
const DefaultSource = "config"

// Registry holds the named contact collections and the active pointer.
// It is an explicit object (not process globals) so multiple registries
// can coexist in tests. Mutations happen only between runs, but the lock
// keeps observers (daemon status, campaign triggers) safe.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]Collection
	active      string
}

func NewRegistry() *Registry {
	return &Registry{
		collections: map[string]Collection{},
		active:      DefaultSource,
	}
}

// Set stores or replaces a collection under name. Replacing contents does
// not change which name is active.
func (r *Registry) Set(name string, c Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Name = name
	r.collections[name] = c
}

// Clear removes a collection. If it was active, the pointer falls back to
// the default source.
func (r *Registry) Clear(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections, name)
	if r.active == name {
		r.active = DefaultSource
	}
}

// SetActive switches the active pointer. Empty or missing collections are
// rejected and the pointer is left unchanged, so downstream batch and
// dispatch operations never silently run on nothing.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collections[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	if c.Len() == 0 {
		return fmt.Errorf("%w: %q is empty", ErrSourceNotFound, name)
	}
	r.active = name
	return nil
}

// ActiveName returns the current active source name.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Active returns the active collection. If the pointer's target has been
// cleared it falls back to the default source, or an empty collection
// when even that is missing.
func (r *Registry) Active() Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.collections[r.active]; ok {
		return c
	}
	if c, ok := r.collections[DefaultSource]; ok {
		return c
	}
	return Collection{Name: DefaultSource, Origin: OriginConfig}
}

// Names lists the registered collection names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for n := range r.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
