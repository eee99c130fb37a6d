package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor opens a KVStore at the given location. The meaning of path is
// store specific (database file, directory, or ignored).
type Constructor func(path string) (KVStore, error)

// Global registry of store constructors
var (
	registryMu   sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register registers a store constructor under name.
// Stores should call this in their init() function.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	constructors[name] = constructor
}

// Registered returns the names of all registered stores, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the store registered under name.
func Open(name, path string) (KVStore, error) {
	registryMu.RLock()
	constructor, ok := constructors[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage backend %q (available: %v)", name, Registered())
	}
	return constructor(path)
}
