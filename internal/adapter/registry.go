package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory creates an unconnected adapter.
type Factory func(*slog.Logger) Adapter

// Registry maps adapter names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// defaultRegistry holds the adapters that register themselves in init().
var defaultRegistry = NewRegistry()

// Add registers factory under name, replacing any previous entry.
func (r *Registry) Add(name string, factory Factory) {
	r.mu.Lock()
	r.factories[strings.ToLower(name)] = factory
	r.mu.Unlock()
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, found := r.factories[strings.ToLower(name)]
	return factory, found
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// New creates an unconnected adapter for cfg.Type. A nil logger discards
// adapter logs.
func (r *Registry) New(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, errors.New("adapter type not specified")
	}
	factory, found := r.Lookup(cfg.Type)
	if !found {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: r.Names()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// Register adds factory to the default registry. Adapters call it from init().
func Register(name string, factory Factory) { defaultRegistry.Add(name, factory) }

// Get returns the factory registered under name in the default registry.
func Get(name string) (Factory, bool) { return defaultRegistry.Lookup(name) }

// NewAdapter creates an adapter from the default registry.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	return defaultRegistry.New(cfg, logger)
}

// ListAdapters returns the names in the default registry, sorted.
func ListAdapters() []string { return defaultRegistry.Names() }

// IsRegistered reports whether name is in the default registry.
func IsRegistered(name string) bool {
	_, found := defaultRegistry.Lookup(name)
	return found
}

// UnknownAdapterError reports a database type with no registered adapter.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %s\nHint: set extract.type in dbexplorer.yaml or pass --type",
		e.Type, strings.Join(e.Available, ", "))
}
