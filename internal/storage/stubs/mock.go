package stubs

import (
	"context"
	"library/internal/fact"
	"library/internal/storage"
	"slices"
	"sync"
)

// MockDB is an in-memory implementation of the Backend interface for testing.
// LoadErr and SaveErr let tests simulate a corrupt source or a failed flush.
type MockDB struct {
	mu      sync.RWMutex
	triples []fact.Triple
	saved   bool
	saves   int

	LoadErr error
	SaveErr error
}

// NewMockDB creates a new mock database holding nothing
func NewMockDB() *MockDB {
	return &MockDB{}
}

// NewMockDBWith creates a mock database that already holds triples, as if a
// previous run had saved them
func NewMockDBWith(triples ...fact.Triple) *MockDB {
	return &MockDB{triples: slices.Clone(triples), saved: true}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Load returns a copy of the last saved fact set
func (m *MockDB) Load(ctx context.Context) ([]fact.Triple, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if !m.saved {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(m.triples), nil
}

// Save replaces the held fact set unless SaveErr is set
func (m *MockDB) Save(ctx context.Context, triples []fact.Triple) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.triples = slices.Clone(triples)
	m.saved = true
	return nil
}

// Saved returns the fact set of the last successful save
func (m *MockDB) Saved() []fact.Triple {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.triples)
}

// SaveCount returns how many times Save was called, failed calls included
func (m *MockDB) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
