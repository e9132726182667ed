package storage

import (
	"context"
	"errors"

	"library/internal/fact"
)

// ErrNotFound is returned by Load when the backend holds no saved fact set yet.
var ErrNotFound = errors.New("storage: no saved facts")

// Backend defines the durable side of the fact store. Every Save replaces the
// complete fact set; there is no incremental write path.
type Backend interface {
	// Load returns every persisted triple. Backends return ErrNotFound when
	// nothing has been saved yet.
	Load(ctx context.Context) ([]fact.Triple, error)

	// Save replaces the persisted fact set with triples.
	Save(ctx context.Context, triples []fact.Triple) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
