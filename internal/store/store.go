// Package store owns the catalog's fact graph and its durable copy.
//
// Every read goes through View and every change through Update, which runs the
// mutation and a full flush under one write lock. A flush that fails leaves the
// in-memory graph changed: callers get ErrNotDurable and must treat the
// mutation as not committed.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"library/internal/storage"
)

// ErrNotDurable wraps backend failures during Save.
var ErrNotDurable = errors.New("store: changes not durably committed")

// Store is the single owner of all facts.
type Store struct {
	mu      sync.RWMutex
	graph   *Graph
	backend storage.Backend
	logger  *zap.Logger
}

// New returns an empty store bound to backend. Call Load to read saved facts.
func New(backend storage.Backend, logger *zap.Logger) *Store {
	return &Store{
		graph:   NewGraph(),
		backend: backend,
		logger:  logger,
	}
}

// Load replaces the in-memory graph with the backend's fact set. A missing or
// unreadable source never fails: the store starts empty and a warning is logged.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = NewGraph()

	triples, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Warn("No saved facts found, starting with an empty graph")
		return
	case err != nil:
		s.logger.Warn("Failed to load facts, starting with an empty graph", zap.Error(err))
		return
	}

	skipped := 0
	for _, t := range triples {
		if !s.graph.Add(t) && !s.graph.Has(t) {
			skipped++
		}
	}
	if skipped > 0 {
		s.logger.Warn("Skipped invalid facts during load", zap.Int("skipped", skipped))
	}
	s.logger.Info("Facts loaded", zap.Int("fact_count", s.graph.Len()))
}

// Save flushes the whole graph to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.graph.Triples()); err != nil {
		s.logger.Error("Failed to save facts", zap.Error(err), zap.Int("fact_count", s.graph.Len()))
		return fmt.Errorf("%w: %w", ErrNotDurable, err)
	}
	return nil
}

// View runs fn with shared access to the graph. fn must not modify it.
func (s *Store) View(fn func(g *Graph)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.graph)
}

// Update runs fn with exclusive access to the graph and then saves. If fn
// returns an error nothing is saved and the error is returned as is; fn should
// validate its input before touching the graph.
func (s *Store) Update(ctx context.Context, fn func(g *Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.graph); err != nil {
		return err
	}
	return s.save(ctx)
}

// Len returns the number of facts currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Len()
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
