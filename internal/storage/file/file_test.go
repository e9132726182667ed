package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/fact"
	"library/internal/storage"
)

func sampleTriples() []fact.Triple {
	book := fact.IRI("http://example.org/book_1")
	return []fact.Triple{
		fact.T(book, fact.IRI("http://example.org/title"), fact.String("Dune")),
		fact.T(book, fact.IRI("http://example.org/year"), fact.Integer(1965)),
		fact.T(book, fact.IRI("http://example.org/isAvailable"), fact.Boolean(true)),
	}
}

func TestFileDB_LoadMissing(t *testing.T) {
	db := NewFileDB(filepath.Join(t.TempDir(), "facts.nt"))

	_, err := db.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileDB_SaveLoad(t *testing.T) {
	ctx := context.Background()
	db := NewFileDB(filepath.Join(t.TempDir(), "nested", "facts.nt"))
	require.NoError(t, db.Initialize(ctx))

	require.NoError(t, db.Save(ctx, sampleTriples()))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleTriples(), got)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(db.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileDB_SaveReplacesContent(t *testing.T) {
	ctx := context.Background()
	db := NewFileDB(filepath.Join(t.TempDir(), "facts.nt"))

	require.NoError(t, db.Save(ctx, sampleTriples()))
	require.NoError(t, db.Save(ctx, sampleTriples()[:1]))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileDB_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.nt")
	require.NoError(t, os.WriteFile(path, []byte("<not> a triple\n"), 0o644))

	_, err := NewFileDB(path).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fact.ErrSyntax)
}

func TestFileDB_SaveIntoMissingDirectoryFails(t *testing.T) {
	db := NewFileDB(filepath.Join(t.TempDir(), "absent", "facts.nt"))

	err := db.Save(context.Background(), sampleTriples())
	assert.Error(t, err)
}

func TestFileDB_InvalidUTF8RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := NewFileDB(filepath.Join(t.TempDir(), "facts.nt"))

	title := fact.T(fact.IRI("http://example.org/book_2"), fact.IRI("http://example.org/title"), fact.String("Caf\xe9"))
	require.NoError(t, db.Save(ctx, []fact.Triple{title}))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, got, title)
}
