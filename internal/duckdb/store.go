// Package duckdb stores normalized coordinates in DuckDB.
// Every valid record is kept with its source positions and both the
// zero-based and one-based spans, so it can be queried in either system.
package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for normalized coordinates.
//
// Rows are stamped with the id of the current load. A load ends when its
// source is recorded (RecordSource) or when it is discarded (Discard).
type Store struct {
	db      *sql.DB
	path    string
	pending []CoordinateRow
	batch   int
	loadID  int64
}

// DefaultBatchSize is the number of buffered rows that triggers an append.
const DefaultBatchSize = 10000

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, batch: DefaultBatchSize}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.nextLoad(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close flushes buffered rows and closes the database connection.
func (s *Store) Close() error {
	flushErr := s.Flush()
	return errors.Join(flushErr, s.db.Close())
}

// LoadID returns the id stamped on rows added in the current load.
func (s *Store) LoadID() int64 {
	return s.loadID
}

// nextLoad starts a new load with an id above every stored one.
func (s *Store) nextLoad() error {
	var id int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(load_id), 0) FROM coordinates`).Scan(&id); err != nil {
		return fmt.Errorf("query load id: %w", err)
	}
	s.loadID = max(id, s.loadID) + 1
	return nil
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// SetBatchSize sets how many rows Add buffers before appending.
func (s *Store) SetBatchSize(n int) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	s.batch = n
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS coordinates (
		chrom VARCHAR,
		source_start BIGINT,
		source_stop BIGINT,
		ref VARCHAR,
		var VARCHAR,
		mutation_type VARCHAR,
		source_system VARCHAR,
		zero_start BIGINT,
		zero_stop BIGINT,
		one_start BIGINT,
		one_stop BIGINT,
		line BIGINT,
		load_id BIGINT
	)`)
	if err != nil {
		return err
	}
	return s.ensureSourcesSchema()
}
