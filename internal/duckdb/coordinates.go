package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/coordconv/internal/coord"
)

// CoordinateRow is one stored coordinate with both of its representations.
type CoordinateRow struct {
	Chrom        string
	SourceStart  int64
	SourceStop   int64
	Ref          string
	Var          string
	MutationType string
	SourceSystem string
	ZeroStart    int64
	ZeroStop     int64
	OneStart     int64
	OneStop      int64
	Line         int64
}

// Span returns the row's start and stop in the given system.
func (r CoordinateRow) Span(system coord.System) (start, stop int64, err error) {
	switch system {
	case coord.ZeroBased:
		return r.ZeroStart, r.ZeroStop, nil
	case coord.OneBased:
		return r.OneStart, r.OneStop, nil
	}
	return 0, 0, fmt.Errorf("unknown coordinate system %q", system)
}

// NewCoordinateRow builds a row from a valid coordinate.
func NewCoordinateRow(c *coord.Coordinate, line int) (CoordinateRow, error) {
	zeroStart, zeroStop, err := c.Span(coord.ZeroBased)
	if err != nil {
		return CoordinateRow{}, err
	}
	oneStart, oneStop, err := c.Span(coord.OneBased)
	if err != nil {
		return CoordinateRow{}, err
	}
	return CoordinateRow{
		Chrom:        c.Chromosome(),
		SourceStart:  c.Start(),
		SourceStop:   c.Stop(),
		Ref:          c.Ref(),
		Var:          c.Var(),
		MutationType: c.MutationType().String(),
		SourceSystem: c.System().String(),
		ZeroStart:    zeroStart,
		ZeroStop:     zeroStop,
		OneStart:     oneStart,
		OneStop:      oneStop,
		Line:         int64(line),
	}, nil
}

// Add buffers a coordinate, appending the buffer once it reaches the batch
// size. It satisfies normalize.Sink.
func (s *Store) Add(c *coord.Coordinate, line int) error {
	row, err := NewCoordinateRow(c, line)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, row)
	if len(s.pending) >= s.batch {
		return s.Flush()
	}
	return nil
}

// Flush appends all buffered rows.
func (s *Store) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	rows := s.pending
	s.pending = nil
	return s.WriteCoordinates(rows)
}

// WriteCoordinates batch-inserts rows into DuckDB using the Appender API.
func (s *Store) WriteCoordinates(rows []CoordinateRow) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "coordinates")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range rows {
		if err := appender.AppendRow(
			r.Chrom, r.SourceStart, r.SourceStop, r.Ref, r.Var,
			r.MutationType, r.SourceSystem,
			r.ZeroStart, r.ZeroStop, r.OneStart, r.OneStop,
			r.Line, s.loadID,
		); err != nil {
			return fmt.Errorf("append coordinate: %w", err)
		}
	}

	return appender.Flush()
}

// Discard drops buffered rows and deletes every row already appended in the
// current load, then starts a new load. It satisfies normalize.Sink.
func (s *Store) Discard() error {
	s.pending = nil
	if _, err := s.db.Exec(`DELETE FROM coordinates WHERE load_id=?`, s.loadID); err != nil {
		return fmt.Errorf("discard load %d: %w", s.loadID, err)
	}
	return s.nextLoad()
}

// ClearCoordinates removes all stored coordinates.
func (s *Store) ClearCoordinates() error {
	s.pending = nil
	_, err := s.db.Exec("DELETE FROM coordinates")
	return err
}

// LookupSpan returns the stored coordinates whose span in the given system
// equals start-stop.
func (s *Store) LookupSpan(chrom string, system coord.System, start, stop int64) ([]CoordinateRow, error) {
	var query string
	switch system {
	case coord.ZeroBased:
		query = selectCoordinates + ` WHERE chrom=? AND zero_start=? AND zero_stop=? ORDER BY line`
	case coord.OneBased:
		query = selectCoordinates + ` WHERE chrom=? AND one_start=? AND one_stop=? ORDER BY line`
	default:
		return nil, fmt.Errorf("lookup span: unknown coordinate system %q", system)
	}

	rows, err := s.db.Query(query, chrom, start, stop)
	if err != nil {
		return nil, fmt.Errorf("query span: %w", err)
	}
	defer rows.Close()

	return scanCoordinateRows(rows)
}

// SearchByMutationType returns all stored coordinates of one mutation type.
func (s *Store) SearchByMutationType(m coord.MutationType) ([]CoordinateRow, error) {
	rows, err := s.db.Query(selectCoordinates+` WHERE mutation_type=? ORDER BY line`, m.String())
	if err != nil {
		return nil, fmt.Errorf("query by mutation type: %w", err)
	}
	defer rows.Close()

	return scanCoordinateRows(rows)
}

// CountByMutationType returns the number of stored coordinates per
// mutation type name.
func (s *Store) CountByMutationType() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT mutation_type, COUNT(*) FROM coordinates GROUP BY mutation_type`)
	if err != nil {
		return nil, fmt.Errorf("count by mutation type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var m string
		var n int64
		if err := rows.Scan(&m, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[m] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// CoordinateCount returns the number of stored coordinates.
func (s *Store) CoordinateCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM coordinates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coordinates: %w", err)
	}
	return n, nil
}

const selectCoordinates = `SELECT
	chrom, source_start, source_stop, ref, var,
	mutation_type, source_system,
	zero_start, zero_stop, one_start, one_stop, line
	FROM coordinates`

// scanCoordinateRows scans rows into CoordinateRow slices.
func scanCoordinateRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]CoordinateRow, error) {
	var results []CoordinateRow
	for rows.Next() {
		var r CoordinateRow
		if err := rows.Scan(
			&r.Chrom, &r.SourceStart, &r.SourceStop, &r.Ref, &r.Var,
			&r.MutationType, &r.SourceSystem,
			&r.ZeroStart, &r.ZeroStop, &r.OneStart, &r.OneStop, &r.Line,
		); err != nil {
			return nil, fmt.Errorf("scan coordinate: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coordinates: %w", err)
	}
	return results, nil
}
