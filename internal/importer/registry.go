package importer

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Target)
	registryMu sync.RWMutex
)

// Register adds an import target to the registry. Called from init in
// the targets package, so definition mistakes panic at startup.
func Register(t Target) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if t.Key == "" {
		panic("target registered with empty key")
	}
	if _, exists := registry[t.Key]; exists {
		panic(fmt.Sprintf("target already registered: %s", t.Key))
	}
	if t.Table == "" {
		panic(fmt.Sprintf("target %s has no table", t.Key))
	}
	if len(t.KeyFields) == 0 {
		panic(fmt.Sprintf("target %s has no key fields", t.Key))
	}
	for _, field := range t.KeyFields {
		if _, ok := t.Field(field); !ok {
			panic(fmt.Sprintf("target %s key field %q is not a column", t.Key, field))
		}
	}

	registry[t.Key] = t
}

// Get returns an import target by key.
// Returns false if not found.
func Get(key string) (Target, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, ok := registry[key]
	return t, ok
}

// All returns all registered targets.
// Sorted by key for consistent ordering.
func All() []Target {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Target, 0, len(registry))
	for _, t := range registry {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns all registered target keys, sorted.
func Keys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

// Count returns the number of registered targets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered targets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Target)
}
