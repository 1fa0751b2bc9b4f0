// Package cache persists the intent embedding index as a versioned SQLite
// artifact: one metadata row carrying the embedding model identifier and
// vector dimension, plus the example rows with their vectors. An artifact
// built under a different model is treated as a cache miss, never used.
package cache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load when no index has been persisted yet.
var ErrNotFound = errors.New("intent index not found")

// Row is one persisted intent example with its embedding vector.
type Row struct {
	Intent  string
	Reply   string
	Example string
	Vector  []float64
}

// Artifact pairs the example rows with the model that embedded them.
type Artifact struct {
	Model     string
	Dimension int
	Rows      []Row
}

const schema = `
CREATE TABLE IF NOT EXISTS intent_index (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	model TEXT NOT NULL,
	dimension INTEGER NOT NULL,
	built_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS intent_examples (
	ord INTEGER PRIMARY KEY,
	intent TEXT NOT NULL,
	reply TEXT NOT NULL,
	example TEXT NOT NULL,
	embedding BLOB NOT NULL
);
`

// Store is a SQLite-backed artifact store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the artifact database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open intent cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure intent cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces the persisted artifact atomically.
func (s *Store) Save(ctx context.Context, a *Artifact) error {
	if a.Model == "" {
		return errors.New("artifact model is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM intent_index`); err != nil {
		return fmt.Errorf("clear index meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM intent_examples`); err != nil {
		return fmt.Errorf("clear index rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO intent_index (id, model, dimension) VALUES (1, ?, ?)`,
		a.Model, a.Dimension,
	); err != nil {
		return fmt.Errorf("store index meta: %w", err)
	}
	for i, row := range a.Rows {
		if len(row.Vector) != a.Dimension {
			return fmt.Errorf("row %d: vector length (%d) does not match dimension (%d)",
				i, len(row.Vector), a.Dimension)
		}
		blob := serializeVector(row.Vector)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO intent_examples (ord, intent, reply, example, embedding) VALUES (?, ?, ?, ?, ?)`,
			i, row.Intent, row.Reply, row.Example, blob,
		); err != nil {
			return fmt.Errorf("store index row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads the persisted artifact. Returns ErrNotFound when none exists.
func (s *Store) Load(ctx context.Context) (*Artifact, error) {
	a := &Artifact{}
	err := s.db.QueryRowContext(ctx,
		`SELECT model, dimension FROM intent_index WHERE id = 1`,
	).Scan(&a.Model, &a.Dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load index meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT intent, reply, example, embedding FROM intent_examples ORDER BY ord`,
	)
	if err != nil {
		return nil, fmt.Errorf("load index rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Row
		var blob []byte
		if err := rows.Scan(&r.Intent, &r.Reply, &r.Example, &blob); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		vec, err := deserializeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		a.Rows = append(a.Rows, r)
		a.Rows[len(a.Rows)-1].Vector = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}
	return a, nil
}

// serializeVector encodes a vector as little-endian float64 bytes.
func serializeVector(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func deserializeVector(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(blob))
	}
	vec := make([]float64, len(blob)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vec, nil
}
