package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/relq/internal/ir"
)

// Memory holds relations in memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*ir.Table
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*ir.Table)}
}

// Put stores a copy of t under name, replacing any previous relation.
func (m *Memory) Put(name string, t *ir.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = t.Clone()
}

// Names returns the stored relation names, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read returns a copy of the named relation.
func (m *Memory) Read(_ context.Context, name string) (*ir.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, ir.NewSourceAccessError(name, fmt.Errorf("no relation %q", name))
	}
	return t.Clone(), nil
}

// Columns returns the column names of the named relation.
func (m *Memory) Columns(_ context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, ir.NewSourceAccessError(name, fmt.Errorf("no relation %q", name))
	}
	return t.Schema.Names(), nil
}
