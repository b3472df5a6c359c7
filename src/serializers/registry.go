package serializers

import (
	"fmt"
	"sort"
	"sync"

	"stock-data-service/src/interfaces"
)

// Constructor creates a serializer instance.
type Constructor func() interfaces.ISerializer

// The global registry map. Key is the encoding name used in the config ("json", "gob").
var (
	registry = map[string]Constructor{
		"json": NewJSONSerializer,
		"gob":  NewBinSerializer,
	}
	mu sync.RWMutex
)

// Register adds a serializer under name.
func Register(name string, constructor Constructor) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("serializer already registered for name: %s", name)
	}
	registry[name] = constructor
	return nil
}

// New returns the serializer registered under name, "" selects json.
func New(name string) (interfaces.ISerializer, error) {
	if name == "" {
		name = "json"
	}

	mu.RLock()
	defer mu.RUnlock()
	constructor, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown serializer type: %s", name)
	}
	return constructor(), nil
}

// Names lists the registered encodings in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
