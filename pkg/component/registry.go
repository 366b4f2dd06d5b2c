package component

import (
	"context"
	"fmt"
	"sync"
)

// Constructor builds a fresh instance of one component type for the
// given identity.
type Constructor func(id string) Instance

// Committer is the optional commit side of a caching Factory. The
// dispatcher commits a component's state after a request completes so
// that a later cached fetch observes the last fully-processed state
// rather than anything a half-finished request applied in memory.
type Committer interface {
	Commit(inst Instance) error
}

// Registry maps component names to constructors and keeps the last
// committed state snapshot per (name, id). It is the default Factory:
// a cached fetch constructs a fresh instance and replays the snapshot
// onto it, a non-cached fetch returns the constructor's defaults.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	committed    map[string]map[string]any
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		committed:    make(map[string]map[string]any),
	}
}

// Register adds a component type under name, replacing any previous
// registration.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	r.constructors[name] = ctor
	r.mu.Unlock()
}

// Create builds the instance for (id, name). With useCache the last
// committed snapshot is replayed onto a fresh construct; without it
// the instance starts from the constructor's defaults.
func (r *Registry) Create(ctx context.Context, id, name string, useCache bool) (Instance, error) {
	key := name + ":" + id

	r.mu.RLock()
	ctor, ok := r.constructors[name]
	snapshot := r.committed[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("component: unknown component %q", name)
	}

	inst := ctor(id)
	if inst == nil {
		return nil, fmt.Errorf("component: constructor for %q returned nil", name)
	}

	if useCache && snapshot != nil {
		if sn, ok := inst.(StructuredNode); ok {
			for field, value := range snapshot {
				sn.SetField(field, value)
			}
		}
	}
	return inst, nil
}

// Commit stores the instance's current public-facing state as the
// durable snapshot for later cached fetches.
func (r *Registry) Commit(inst Instance) error {
	state, err := inst.FrontendState()
	if err != nil {
		return err
	}
	key := inst.Name() + ":" + inst.ID()

	r.mu.Lock()
	r.committed[key] = state
	r.mu.Unlock()
	return nil
}

var (
	_ Factory   = (*Registry)(nil)
	_ Committer = (*Registry)(nil)
)
