package ch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"library/internal/fact"
)

const ns = "http://www.library-system.org/ontology#"

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse container test in short mode")
	}
	ctx := context.Background()

	// Start ClickHouse container
	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	// Get connection details
	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	// Create database connection
	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	// Apply the embedded migrations
	err = db.Initialize(ctx)
	require.NoError(t, err, "Failed to run migrations")

	// Cleanup function
	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func bookFacts() []fact.Triple {
	book := fact.IRI(ns + "book_1")
	return []fact.Triple{
		fact.T(book, fact.IRI(ns+"title"), fact.String("Dune")),
		fact.T(book, fact.IRI(ns+"year"), fact.Integer(1965)),
		fact.T(book, fact.IRI(ns+"isAvailable"), fact.Boolean(true)),
		fact.T(book, fact.IRI(ns+"hasCategory"), fact.IRI(ns+"category_scifi")),
	}
}

// TestClickHouseDB_SaveLoad tests a full round trip through the facts table
func TestClickHouseDB_SaveLoad(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Initially should be empty
	triples, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, triples)

	require.NoError(t, db.Save(ctx, bookFacts()))

	triples, err = db.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, bookFacts(), triples)
}

// TestClickHouseDB_SaveReplaces tests that every save rewrites the whole set
func TestClickHouseDB_SaveReplaces(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, db.Save(ctx, bookFacts()))
	require.NoError(t, db.Save(ctx, bookFacts()[:2]))

	triples, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, triples, 2)

	// Saving nothing empties the table
	require.NoError(t, db.Save(ctx, nil))
	triples, err = db.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, triples)
}

// TestClickHouseDB_InitializeIsIdempotent tests re-running migrations
func TestClickHouseDB_InitializeIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, db.Initialize(context.Background()))
}

// TestClickHouseDB_FailedSaveKeepsFacts tests that a rejected batch leaves the previous set in place
func TestClickHouseDB_FailedSaveKeepsFacts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, db.Save(ctx, bookFacts()))

	broken := append(bookFacts()[:1], fact.Triple{Subject: fact.IRI(ns + "book_2"), Predicate: fact.IRI(ns + "title")})
	err := db.Save(ctx, broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, fact.ErrSyntax)

	triples, err := db.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, bookFacts(), triples)

	// The next good save still goes through
	require.NoError(t, db.Save(ctx, bookFacts()[:2]))
	triples, err = db.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, triples, 2)
}
