package duckdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/coordconv/internal/coord"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCoord(t *testing.T, chrom string, start, stop int64, ref, alt string) *coord.Coordinate {
	t.Helper()
	c, err := coord.New(chrom, start, stop, ref, alt)
	require.NoError(t, err)
	return c
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestCloseReportsFlushError(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	require.NoError(t, s.Add(mustCoord(t, "1", 10, 11, "A", "G"), 1))
	require.NoError(t, s.DB().Close())

	// The pending row cannot be appended to a closed database.
	err = s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get connection")
}

func TestCoordinateRowSpan(t *testing.T) {
	row, err := NewCoordinateRow(mustCoord(t, "1", 10, 10, "A", "G"), 1)
	require.NoError(t, err)

	start, stop, err := row.Span(coord.ZeroBased)
	require.NoError(t, err)
	assert.Equal(t, [2]int64{9, 10}, [2]int64{start, stop})

	start, stop, err = row.Span(coord.OneBased)
	require.NoError(t, err)
	assert.Equal(t, [2]int64{10, 10}, [2]int64{start, stop})

	_, _, err = row.Span(coord.SystemUnknown)
	assert.Error(t, err)
}

func TestNewCoordinateRow(t *testing.T) {
	row, err := NewCoordinateRow(mustCoord(t, "chr2", 100, 102, "ATG", "-"), 7)
	require.NoError(t, err)

	assert.Equal(t, CoordinateRow{
		Chrom: "chr2", SourceStart: 100, SourceStop: 102, Ref: "ATG", Var: "-",
		MutationType: "del", SourceSystem: "one_based",
		ZeroStart: 99, ZeroStop: 102, OneStart: 100, OneStop: 102,
		Line: 7,
	}, row)

	invalid, _ := coord.New("chr3", 1, 6, "AAAA", "TTTT")
	_, err = NewCoordinateRow(invalid, 1)
	assert.ErrorIs(t, err, coord.ErrInvalidCoordinate)
}

func TestAddFlushAndLookup(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.Add(mustCoord(t, "12", 25398285, 25398285, "C", "A"), 1))
	require.NoError(t, s.Add(mustCoord(t, "12", 25398284, 25398285, "C", "T"), 2))
	require.NoError(t, s.Add(mustCoord(t, "17", 37880981, 37880982, "-", "GCA"), 3))

	// Nothing is visible before Flush.
	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Flush())

	n, err = s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Both SNVs occupy the same base, whatever system they came in.
	rows, err := s.LookupSpan("12", coord.ZeroBased, 25398284, 25398285)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "one_based", rows[0].SourceSystem)
	assert.Equal(t, "zero_based", rows[1].SourceSystem)
	assert.Equal(t, "T", rows[1].Var)

	rows, err = s.LookupSpan("17", coord.OneBased, 37880981, 37880982)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ins", rows[0].MutationType)
	assert.Equal(t, int64(37880981), rows[0].ZeroStart)
	assert.Equal(t, int64(37880981), rows[0].ZeroStop)

	rows, err = s.LookupSpan("1", coord.OneBased, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.LookupSpan("1", coord.SystemUnknown, 1, 1)
	assert.Error(t, err)
}

func TestBatchSizeTriggersAppend(t *testing.T) {
	s := openInMemory(t)
	s.SetBatchSize(2)

	require.NoError(t, s.Add(mustCoord(t, "1", 10, 11, "A", "G"), 1))
	require.NoError(t, s.Add(mustCoord(t, "1", 20, 21, "A", "G"), 2))
	require.NoError(t, s.Add(mustCoord(t, "1", 30, 31, "A", "G"), 3))

	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Flush())
	n, err = s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSearchAndCountByMutationType(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.Add(mustCoord(t, "7", 55242465, 55242479, "GGAATTAAGAGAAGC", "-"), 1))
	require.NoError(t, s.Add(mustCoord(t, "7", 140453135, 140453136, "CA", "TT"), 2))
	require.NoError(t, s.Add(mustCoord(t, "10", 116734973, 116734973, "G", "A"), 3))
	require.NoError(t, s.Add(mustCoord(t, "12", 25398285, 25398285, "C", "A"), 4))
	require.NoError(t, s.Flush())

	rows, err := s.SearchByMutationType(coord.SNV)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "10", rows[0].Chrom)
	assert.Equal(t, "12", rows[1].Chrom)

	counts, err := s.CountByMutationType()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"del": 1, "sub": 1, "snv": 2}, counts)
}

func TestClearCoordinates(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.Add(mustCoord(t, "1", 10, 11, "A", "G"), 1))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Add(mustCoord(t, "1", 20, 21, "A", "G"), 2))

	require.NoError(t, s.ClearCoordinates())
	require.NoError(t, s.Flush())

	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDiscardDropsCurrentLoad(t *testing.T) {
	s := openInMemory(t)
	s.SetBatchSize(2)

	fp := FileFingerprint{Path: "/data/first.tsv", Size: 10, ModTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	first := s.LoadID()
	require.NoError(t, s.Add(mustCoord(t, "1", 10, 11, "A", "G"), 1))
	require.NoError(t, s.RecordSource(fp, "one_based", 1, 0))
	assert.Greater(t, s.LoadID(), first)

	// Three rows with a batch size of two: two appended, one pending.
	require.NoError(t, s.Add(mustCoord(t, "2", 10, 11, "A", "G"), 1))
	require.NoError(t, s.Add(mustCoord(t, "2", 20, 21, "A", "G"), 2))
	require.NoError(t, s.Add(mustCoord(t, "2", 30, 31, "A", "G"), 3))

	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	discarded := s.LoadID()
	require.NoError(t, s.Discard())
	assert.Greater(t, s.LoadID(), discarded)
	require.NoError(t, s.Flush())

	rows, err := s.SearchByMutationType(coord.SNV)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Chrom)
}

func TestLoadIDContinuesAcrossOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "coords.duckdb")

	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Add(mustCoord(t, "X", 5, 5, "-", "T"), 1))
	first := s.LoadID()
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	assert.Greater(t, s.LoadID(), first)

	// Discarding the new load leaves the earlier one alone.
	require.NoError(t, s.Add(mustCoord(t, "X", 6, 6, "-", "T"), 1))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Discard())

	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSources(t *testing.T) {
	s := openInMemory(t)

	fp := FileFingerprint{Path: "/data/sample.maf", Size: 1000, ModTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	loaded, _, err := s.SourceLoaded(fp)
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, s.RecordSource(fp, "zero_based", 5, 1))

	loaded, converted, err := s.SourceLoaded(fp)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, int64(5), converted)

	changed := fp
	changed.Size = 1001
	loaded, _, err = s.SourceLoaded(changed)
	require.NoError(t, err)
	assert.False(t, loaded)

	assert.Contains(t, fp.String(), "/data/sample.maf (1000 bytes")
}

func TestStatFile(t *testing.T) {
	_, err := StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	fp, err := StatFile(filepath.Join("..", "..", "testdata", "sample.maf"))
	require.NoError(t, err)
	assert.Greater(t, fp.Size, int64(0))
}

func TestPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "coords.duckdb")

	s, err := Open(dbPath)
	require.NoError(t, err)
	assert.Equal(t, dbPath, s.Path())
	require.NoError(t, s.Add(mustCoord(t, "X", 5, 5, "-", "T"), 1))
	// Close flushes pending rows.
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CoordinateCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
