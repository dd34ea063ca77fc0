package scrape

import (
	"fmt"
	"log"
	"sync"
)

// Factory builds a strategy instance. It is invoked once at registration to
// validate the connector, and its result is the instance served by Lookup.
type Factory func() (Strategy, error)

type registryEntry struct {
	strategy Strategy
	meta     Metadata
}

// Registry is the catalog of registered scraper strategies, keyed by source
// id. It is read-mostly: registration happens once at startup, while Lookup
// and status flips may run concurrently with in-flight fetches.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register instantiates the strategy via factory and stores it as active.
// On any factory failure the source is stored with status error so that
// diagnostics see it, and an ErrRegistration is returned; registration of
// other sources is unaffected.
func (r *Registry) Register(sourceID string, factory Factory, meta Metadata) error {
	strategy, err := factory()
	if err == nil && strategy == nil {
		err = fmt.Errorf("factory returned nil strategy")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		meta.Status = StatusError
		meta.ErrorMessage = err.Error()
		r.entries[sourceID] = &registryEntry{meta: meta}
		log.Printf("registry: failed to register scraper %q: %v", sourceID, err)
		return fmt.Errorf("%w: source %q: %v", ErrRegistration, sourceID, err)
	}

	meta.Status = StatusActive
	meta.ErrorMessage = ""
	r.entries[sourceID] = &registryEntry{strategy: strategy, meta: meta}
	log.Printf("registry: registered scraper %q (%s)", sourceID, strategy.Name())
	return nil
}

// Lookup returns the strategy instance for an active source.
func (r *Registry) Lookup(sourceID string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, sourceID)
	}
	if entry.meta.Status != StatusActive || entry.strategy == nil {
		return nil, fmt.Errorf("%w: %q has status %s", ErrUnavailable, sourceID, entry.meta.Status)
	}
	return entry.strategy, nil
}

// Disable flips a source to disabled. Idempotent; unknown ids are ignored.
func (r *Registry) Disable(sourceID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return
	}
	entry.meta.Status = StatusDisabled
	entry.meta.ErrorMessage = reason
	log.Printf("registry: disabled scraper %q: %s", sourceID, reason)
}

// Enable flips a disabled source back to active. Idempotent; unknown ids are
// ignored.
func (r *Registry) Enable(sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return
	}
	entry.meta.Status = StatusActive
	entry.meta.ErrorMessage = ""
	log.Printf("registry: enabled scraper %q", sourceID)
}

// Metadata returns a copy of the metadata for the source.
func (r *Registry) Metadata(sourceID string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return Metadata{}, false
	}
	return entry.meta, true
}

// Entry is one row of the diagnostics snapshot.
type Entry struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata"`
}

// List returns a read-only snapshot of every registered source.
func (r *Registry) List() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Entry, len(r.entries))
	for id, entry := range r.entries {
		name := ""
		if entry.strategy != nil {
			name = entry.strategy.Name()
		}
		out[id] = Entry{Name: name, Metadata: entry.meta}
	}
	return out
}
