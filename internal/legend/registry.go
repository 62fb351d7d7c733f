package legend

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps provider ids to the store used to resolve their symbols.
// It is filled once at configuration time and is read-only afterwards; it is
// not safe to Register while resolving.
type Registry struct {
	base   *Store
	stores map[string]registered
}

type registered struct {
	id    string
	store *Store
}

// NewRegistry creates a registry around a loaded base store.
func NewRegistry(base *Store) *Registry {
	return &Registry{
		base:   base,
		stores: make(map[string]registered),
	}
}

// Register applies patch to the base store and records the result under
// patch.Provider. On error nothing is registered.
func (r *Registry) Register(patch Patch) error {
	id := strings.TrimSpace(patch.Provider)
	if _, exists := r.stores[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	s, err := Apply(r.base, patch)
	if err != nil {
		return fmt.Errorf("register provider %q: %w", id, err)
	}
	r.stores[id] = registered{id: id, store: s}
	return nil
}

// RegisterBase registers a provider that uses the base legend unpatched.
func (r *Registry) RegisterBase(provider string) error {
	id := strings.TrimSpace(provider)
	if id == "" {
		return fmt.Errorf("%w: empty provider id", ErrMalformedDataset)
	}
	if _, exists := r.stores[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	r.stores[id] = registered{id: id, store: r.base}
	return nil
}

// Base returns the unpatched base store.
func (r *Registry) Base() *Store { return r.base }

// Lookup returns the store registered for provider.
func (r *Registry) Lookup(provider string) (*Store, bool) {
	e, ok := r.stores[strings.TrimSpace(provider)]
	return e.store, ok
}

// ID returns the registry's own copy of a registered provider id. Callers
// holding a borrowed string, such as a request buffer, use it when the id
// must outlive the caller's copy.
func (r *Registry) ID(provider string) (string, bool) {
	e, ok := r.stores[strings.TrimSpace(provider)]
	return e.id, ok
}

// Store returns the store for provider, falling back to the base store for
// providers without a patch.
func (r *Registry) Store(provider string) *Store {
	if s, ok := r.Lookup(provider); ok {
		return s
	}
	return r.base
}

// Providers returns the registered provider ids, sorted.
func (r *Registry) Providers() []string {
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
