package ch

import (
	"context"
	"crypto/tls"
	"fmt"

	"library/internal/fact"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const (
	kindIRI     = "iri"
	kindLiteral = "literal"
)

type ClickHouseDB struct {
	conn    clickhouse.Conn
	options *clickhouse.Options
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// Initialize applies the embedded goose migrations so the facts table exists
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()

	if err := Migrate(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("failed to migrate ClickHouse: %w", err)
	}
	return nil
}

// Load returns every row of the facts table
func (db *ClickHouseDB) Load(ctx context.Context) ([]fact.Triple, error) {
	rows, err := db.conn.Query(ctx, `SELECT subject, predicate, object, object_kind, datatype FROM facts`)
	if err != nil {
		return nil, fmt.Errorf("failed to load facts: %w", err)
	}
	defer rows.Close()

	var triples []fact.Triple
	for rows.Next() {
		var subject, predicate, object, kind, datatype string
		if err := rows.Scan(&subject, &predicate, &object, &kind, &datatype); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}

		t := fact.T(fact.IRI(subject), fact.IRI(predicate), fact.Term{})
		switch kind {
		case kindIRI:
			t.Object = fact.IRI(object)
		case kindLiteral:
			t.Object = fact.Term{Kind: fact.KindLiteral, Value: object, Datatype: datatype}
		default:
			return nil, fmt.Errorf("%w: unknown object kind %q", fact.ErrSyntax, kind)
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read facts: %w", err)
	}
	return triples, nil
}

// Save writes the full fact set into the staging table and swaps it with
// facts. A failed write leaves facts as it was.
func (db *ClickHouseDB) Save(ctx context.Context, triples []fact.Triple) error {
	if err := db.conn.Exec(ctx, `TRUNCATE TABLE IF EXISTS facts_next`); err != nil {
		return fmt.Errorf("failed to clear staging table: %w", err)
	}

	if len(triples) > 0 {
		if err := db.insert(ctx, triples); err != nil {
			return err
		}
	}

	if err := db.conn.Exec(ctx, `EXCHANGE TABLES facts AND facts_next`); err != nil {
		return fmt.Errorf("failed to swap in new facts: %w", err)
	}
	return nil
}

func (db *ClickHouseDB) insert(ctx context.Context, triples []fact.Triple) error {
	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO facts_next (subject, predicate, object, object_kind, datatype)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, t := range triples {
		if !t.Valid() {
			batch.Abort()
			return fmt.Errorf("%w: cannot store %v", fact.ErrSyntax, t)
		}
		kind := kindLiteral
		if t.Object.IsIRI() {
			kind = kindIRI
		}
		if err := batch.Append(t.Subject.Value, t.Predicate.Value, t.Object.Value, kind, t.Object.Datatype); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append fact: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert facts: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
