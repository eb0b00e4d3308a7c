package mask

import (
	"fmt"
	"sort"
	"sync"
)

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{"vector": Vector{}}
)

// Register makes a backend available by name. Backends living in packages
// with heavier dependencies register themselves from init.
func Register(b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[b.Name()]; dup {
		panic("mask: Register called twice for backend " + b.Name())
	}
	backends[b.Name()] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("mask: unknown backend %q (have %v)", name, backendNames())
	}
	return b, nil
}

// Backends lists the registered backend names.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return backendNames()
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
