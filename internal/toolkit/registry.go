package toolkit

import (
	"fmt"
	"sync"
)

var (
	registry     = make(map[ID]Provider)
	registryLock sync.RWMutex
	defaultID    ID = Tk
)

// Register adds a provider to the registry.
// This should be called from init() functions in provider implementations.
func Register(p Provider) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[p.ID()] = p
}

// Get returns a provider by ID.
func Get(id ID) (Provider, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()

	p, ok := registry[id]
	if !ok {
		return nil, &ErrUnknownToolkit{ID: id}
	}
	return p, nil
}

// GetDefault returns the default toolkit provider.
func GetDefault() (Provider, error) {
	return Get(defaultID)
}

// DefaultID returns the default toolkit ID.
func DefaultID() ID {
	return defaultID
}

// SetDefault changes the default toolkit ID.
func SetDefault(id ID) error {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, ok := registry[id]; !ok {
		return &ErrUnknownToolkit{ID: id}
	}
	defaultID = id
	return nil
}

// List returns all registered provider IDs.
func List() []ID {
	registryLock.RLock()
	defer registryLock.RUnlock()

	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// ListProviders returns all registered providers.
func ListProviders() []Provider {
	registryLock.RLock()
	defer registryLock.RUnlock()

	providers := make([]Provider, 0, len(registry))
	for _, p := range registry {
		providers = append(providers, p)
	}
	return providers
}

// IsRegistered checks if a toolkit ID is registered.
func IsRegistered(id ID) bool {
	registryLock.RLock()
	defer registryLock.RUnlock()
	_, ok := registry[id]
	return ok
}

// ParseID parses a string into a toolkit ID, returning an error if unknown.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if !IsRegistered(id) {
		return "", &ErrUnknownToolkit{ID: id}
	}
	return id, nil
}

// ErrUnknownToolkit is returned when a toolkit ID is not found.
type ErrUnknownToolkit struct {
	ID ID
}

func (e *ErrUnknownToolkit) Error() string {
	registered := List()
	return fmt.Sprintf("unknown toolkit %q, available: %v", e.ID, registered)
}
