package component

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an optional component. Returning a nil component with a nil
// error means the component is disabled by configuration.
type Factory func(deps Dependencies) (Component, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("component %s already registered", name))
	}

	registry[name] = factory
}

func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()

	factory, exists := registry[name]
	return factory, exists
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadAll(deps Dependencies) ([]Component, error) {
	names := List()

	components := make([]Component, 0, len(names))
	for _, name := range names {
		factory, _ := Get(name)
		comp, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create component %s: %w", name, err)
		}
		if comp == nil {
			continue
		}
		components = append(components, comp)
	}

	return components, nil
}
