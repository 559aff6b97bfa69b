package services

import (
	"context"
	"fmt"
	"sync"

	"backoffice/internal/core"
)

// EntitySource loads the entities of one kind. Each kind has its own source
// so new kinds plug in without touching the summary code.
type EntitySource interface {
	Kind() core.EntityKind
	Entities(ctx context.Context) ([]core.Entity, error)
}

// storeSource reads one kind from an EntityStore.
type storeSource struct {
	kind  core.EntityKind
	store EntityStore
}

func (s storeSource) Kind() core.EntityKind { return s.kind }

func (s storeSource) Entities(ctx context.Context) ([]core.Entity, error) {
	return s.store.ListEntities(ctx, s.kind)
}

// EntitySources maps entity kinds to their sources.
type EntitySources struct {
	mu      sync.RWMutex
	sources map[core.EntityKind]EntitySource
}

// NewEntitySources registers a store-backed source for every known kind.
func NewEntitySources(store EntityStore) *EntitySources {
	r := &EntitySources{sources: make(map[core.EntityKind]EntitySource, len(core.EntityKinds))}
	for _, k := range core.EntityKinds {
		r.Register(storeSource{kind: k, store: store})
	}
	return r
}

// Register adds or replaces the source for its kind.
func (r *EntitySources) Register(src EntitySource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.Kind()] = src
}

// Get returns the source for kind or core.ErrUnknownEntityKind.
func (r *EntitySources) Get(kind core.EntityKind) (EntitySource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEntityKind, kind)
	}
	return src, nil
}

// All returns the sources in core.EntityKinds order.
func (r *EntitySources) All() []EntitySource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntitySource, 0, len(r.sources))
	for _, k := range core.EntityKinds {
		if src, ok := r.sources[k]; ok {
			out = append(out, src)
		}
	}
	return out
}
