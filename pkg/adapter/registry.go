package adapter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Deps are the collaborators handed to an adapter factory.
type Deps struct {
	Logger  *slog.Logger
	Tracker *cancel.Tracker
}

// Factory builds an adapter.
type Factory func(Deps) Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[core.Dialect]Factory)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(d core.Dialect, factory Factory) {
	if !d.Valid() {
		panic(fmt.Sprintf("adapter: register of unknown dialect %q", d))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d] = factory
}

// Get retrieves an adapter factory by dialect.
func Get(d core.Dialect) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[d]
	return f, ok
}

// New creates the adapter for a dialect.
func New(d core.Dialect, deps Deps) (Adapter, error) {
	if d == "" {
		return nil, fmt.Errorf("database type not specified")
	}
	factory, ok := Get(d)
	if !ok {
		return nil, &UnknownAdapterError{Dialect: d, Available: ListAdapters()}
	}
	return factory(deps), nil
}

// ForConfig creates the adapter selected by cfg.DBType.
func ForConfig(cfg core.ConnectionConfig, deps Deps) (Adapter, error) {
	return New(cfg.DBType, deps)
}

// ListAdapters returns the registered dialects in canonical order.
func ListAdapters() []core.Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]core.Dialect, 0, len(registry))
	for _, d := range core.Dialects() {
		if _, ok := registry[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// IsRegistered checks if an adapter is registered for a dialect.
func IsRegistered(d core.Dialect) bool {
	_, ok := Get(d)
	return ok
}

// UnknownAdapterError is returned when no adapter serves the requested dialect.
type UnknownAdapterError struct {
	Dialect   core.Dialect
	Available []core.Dialect
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown database type %q\nAvailable adapters: %v\nHint: Check connection.type in dbdesk.yaml", e.Dialect, e.Available)
}
