// Package registry holds the in-memory named highlight registry.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/raysh454/textmark/internal/model"
)

// Memory is a named highlight registry kept in process memory. It always
// reports itself as supported. Set replaces the set for a name; Clear
// drops every name.
type Memory struct {
	mu   sync.RWMutex
	sets map[string]model.HighlightSet
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{sets: make(map[string]model.HighlightSet)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Memory
)

// Default returns the process-wide registry, created on first use.
func Default() *Memory {
	defaultOnce.Do(func() {
		defaultReg = NewMemory()
	})
	return defaultReg
}

func (m *Memory) Supported(context.Context) bool {
	return true
}

// Set stores a copy of set under name.
func (m *Memory) Set(_ context.Context, name string, set model.HighlightSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets == nil {
		m.sets = make(map[string]model.HighlightSet)
	}
	m.sets[name] = set.Clone()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = make(map[string]model.HighlightSet)
	return nil
}

// Get returns a copy of the set published under name.
func (m *Memory) Get(name string) (model.HighlightSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[name]
	return set.Clone(), ok
}

// Names returns the published names, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sets))
	for k := range m.sets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len is the number of published names.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets)
}

// Snapshot copies every published set.
func (m *Memory) Snapshot() map[string]model.HighlightSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.HighlightSet, len(m.sets))
	for k, v := range m.sets {
		out[k] = v.Clone()
	}
	return out
}
