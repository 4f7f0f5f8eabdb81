package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vmseed/vmseed/internal/logger"
)

// Registry maps step types to their implementations. Registration happens
// once at startup; lookups are concurrency-safe.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  *logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  log,
	}
}

// Register adds a plugin under its declared step type. Registering the same
// type twice is a programming error and is rejected.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	meta := p.Metadata()
	if meta.Type == "" {
		return fmt.Errorf("plugin metadata missing step type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Type]; exists {
		return fmt.Errorf("plugin already registered for step type %q", meta.Type)
	}

	r.plugins[meta.Type] = p
	r.logger.WithFields(map[string]any{"type": meta.Type}).Debug("registered plugin")
	return nil
}

// Get returns the plugin for a step type.
func (r *Registry) Get(stepType string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[stepType]
	if !ok {
		return nil, ErrPluginNotFound{Type: stepType}
	}
	return p, nil
}

// Types returns the registered step types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
