package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (fp FileFingerprint) modTime() string {
	return fp.ModTime.UTC().Format(time.RFC3339Nano)
}

func (s *Store) ensureSourcesSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sources (
		path VARCHAR,
		size BIGINT,
		mod_time VARCHAR,
		target_system VARCHAR,
		converted BIGINT,
		skipped BIGINT,
		load_id BIGINT
	)`)
	return err
}

// RecordSource flushes buffered rows, remembers that an input file was
// loaded into the store and ends the current load.
func (s *Store) RecordSource(fp FileFingerprint, target string, converted, skipped int) error {
	if err := s.Flush(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO sources VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.modTime(), target, int64(converted), int64(skipped), s.loadID)
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return s.nextLoad()
}

// SourceLoaded reports whether a file with the same path, size and
// modification time was loaded before, and how many records it produced.
func (s *Store) SourceLoaded(fp FileFingerprint) (bool, int64, error) {
	var converted int64
	err := s.db.QueryRow(`SELECT converted FROM sources
		WHERE path=? AND size=? AND mod_time=?
		LIMIT 1`, fp.Path, fp.Size, fp.modTime()).Scan(&converted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("query source %s: %w", fp.Path, err)
	}
	return true, converted, nil
}

// String formats the fingerprint for log output.
func (fp FileFingerprint) String() string {
	return fp.Path + " (" + strconv.FormatInt(fp.Size, 10) + " bytes, " + fp.modTime() + ")"
}
