package component

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a component from the shared dependencies. A factory returns
// (nil, nil) when its component is disabled by configuration.
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

// LoadAll builds every registered component in name order, skipping the
// disabled ones.
func LoadAll(deps Dependencies) ([]Component, error) {
	components := make([]Component, 0)
	for _, name := range List() {
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
