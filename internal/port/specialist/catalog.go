package specialist

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a specialist from string options.
type Factory func(opts map[string]string) (Specialist, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a specialist factory available by name.
// It is typically called from an init() function in the adapter package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("specialist: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a specialist by name using the registered factory.
func New(name string, opts map[string]string) (Specialist, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("specialist: unknown specialist %q", name)
	}
	return factory(opts)
}

// Available returns the sorted names of all registered factories.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
