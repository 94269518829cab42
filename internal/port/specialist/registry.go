package specialist

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// Member describes one registered specialist.
type Member struct {
	Name        string       `json:"name"`
	RequestType request.Type `json:"request_type"`
	Initialized bool         `json:"initialized"`
}

type entry struct {
	s           Specialist
	initialized bool
}

// Registry is the live set of specialists. Membership changes take a write
// lock; routing takes a read lock, so a concurrent Add or Remove is seen
// either entirely or not at all by an in-progress Select.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*entry)}
}

// Add registers s. It fails with domain.ErrConflict if the name or the
// request type is already served.
func (r *Registry) Add(s Specialist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[s.Name()]; ok {
		return fmt.Errorf("%w: specialist %q already registered", domain.ErrConflict, s.Name())
	}
	for name, e := range r.members {
		if e.s.RequestType() == s.RequestType() {
			return fmt.Errorf("%w: request type %q already served by %q", domain.ErrConflict, s.RequestType(), name)
		}
	}
	_, needsInit := s.(Initializer)
	r.members[s.Name()] = &entry{s: s, initialized: !needsInit}
	return nil
}

// Remove unregisters the named specialist.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[name]; !ok {
		return fmt.Errorf("specialist %q: %w", name, domain.ErrNotFound)
	}
	delete(r.members, name)
	return nil
}

// MarkInitialized records that the named specialist finished Init.
func (r *Registry) MarkInitialized(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.members[name]; ok {
		e.initialized = true
	}
}

// Get returns the named specialist.
func (r *Registry) Get(name string) (Specialist, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.members[name]
	if !ok {
		return nil, false
	}
	return e.s, true
}

// Select returns the specialists that handle t, sorted by name. The general
// type selects every specialist. A type with no specialist, or a general
// request against an empty registry, returns domain.ErrUnknownDomain.
func (r *Registry) Select(t request.Type) ([]Specialist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Specialist
	for _, e := range r.members {
		if t == request.TypeGeneral || e.s.RequestType() == t {
			out = append(out, e.s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no specialist for request type %q", domain.ErrUnknownDomain, t)
	}
	slices.SortFunc(out, func(a, b Specialist) int { return strings.Compare(a.Name(), b.Name()) })
	return out, nil
}

// Members returns a snapshot of the registry sorted by name.
func (r *Registry) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.members))
	for name, e := range r.members {
		out = append(out, Member{Name: name, RequestType: e.s.RequestType(), Initialized: e.initialized})
	}
	slices.SortFunc(out, func(a, b Member) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Pending returns the specialists that still need Init.
func (r *Registry) Pending() []Specialist {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Specialist
	for _, e := range r.members {
		if !e.initialized {
			out = append(out, e.s)
		}
	}
	return out
}
