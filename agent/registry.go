package agent

import (
	"fmt"
	"sync"
)

// Key identifies one agent configuration: whether analysis is enabled and
// which provider preference it carries.
type Key struct {
	UseAI  bool
	Engine string
}

// Factory constructs the agent for a configuration key.
type Factory func(Key) (*Agent, error)

// Registry memoizes agents per configuration so shells reuse provider
// clients across calls instead of keeping hidden process-wide state. The
// shell owns the registry and evicts on shutdown.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	agents  map[Key]*Agent
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		agents:  make(map[Key]*Agent),
	}
}

// Get returns the agent for key, constructing it on first use.
func (r *Registry) Get(key Key) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[key]; ok {
		return a, nil
	}
	a, err := r.factory(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build agent for %+v: %w", key, err)
	}
	r.agents[key] = a
	return a, nil
}

// Close evicts every constructed agent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[Key]*Agent)
}
