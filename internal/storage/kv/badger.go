package kv

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"library/internal/fact"
)

// factPrefix namespaces triple keys; the encoded statement is the rest of the key.
var factPrefix = []byte("fact/")

// BadgerDB stores each triple as one key in a badger database.
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB opens (or creates) a badger database in dir. An empty dir
// keeps everything in memory, which is what the tests use.
func NewBadgerDB(dir string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerDB{db: db}, nil
}

// Initialize is a no-op - badger creates its files on open
func (b *BadgerDB) Initialize(ctx context.Context) error {
	return nil
}

// Load returns every stored triple. An empty database is not an error.
func (b *BadgerDB) Load(ctx context.Context) ([]fact.Triple, error) {
	var triples []fact.Triple
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = factPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			t, err := fact.DecodeLine(string(bytes.TrimPrefix(key, factPrefix)))
			if err != nil {
				return fmt.Errorf("corrupt key %q: %w", key, err)
			}
			triples = append(triples, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load facts: %w", err)
	}
	return triples, nil
}

// Save replaces all stored triples inside one badger transaction.
func (b *BadgerDB) Save(ctx context.Context, triples []fact.Triple) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = factPrefix

		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete %q: %w", key, err)
			}
		}

		for _, t := range triples {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !t.Valid() {
				return fmt.Errorf("%w: cannot store %v", fact.ErrSyntax, t)
			}
			key := append(bytes.Clone(factPrefix), fact.EncodeLine(t)...)
			if err := txn.Set(key, nil); err != nil {
				return fmt.Errorf("failed to write %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save facts: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}
