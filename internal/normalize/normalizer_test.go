package normalize

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/coordconv/internal/coord"
	"github.com/inodb/coordconv/internal/maf"
	"github.com/inodb/coordconv/internal/output"
	"github.com/inodb/coordconv/internal/tsv"
)

const mixedInput = `chr1	10	11	A	T
chr1	5	5	-	G
chr2	100	102	ATG	-
chr3	1	6	AAAA	TTTT
chr3	1	5	AAAA	TTTT
`

type memSink struct {
	lines     []int
	coords    []string
	flushed   bool
	discarded bool
}

func (s *memSink) Add(c *coord.Coordinate, line int) error {
	s.lines = append(s.lines, line)
	s.coords = append(s.coords, c.String())
	return nil
}

func (s *memSink) Flush() error {
	s.flushed = true
	return nil
}

func (s *memSink) Discard() error {
	s.lines, s.coords = nil, nil
	s.discarded = true
	return nil
}

func newParser(t *testing.T, input string) tsv.RecordParser {
	t.Helper()
	p, err := tsv.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)
	return p
}

func TestNormalizer_Run(t *testing.T) {
	var buf bytes.Buffer
	core, logs := observer.New(zapcore.WarnLevel)

	n := NewNormalizer(coord.OneBased)
	n.SetLogger(zap.New(core))
	sink := &memSink{}
	n.SetSink(sink)

	stats, err := n.Run(newParser(t, mixedInput), output.NewTabWriter(&buf, n.Target()))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Read)
	assert.Equal(t, 4, stats.Converted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.ByType[coord.SNV])
	assert.Equal(t, 1, stats.ByType[coord.Insertion])
	assert.Equal(t, 1, stats.ByType[coord.Deletion])
	assert.Equal(t, 1, stats.ByType[coord.Substitution])
	assert.Equal(t, 3, stats.BySystem[coord.ZeroBased])
	assert.Equal(t, 1, stats.BySystem[coord.OneBased])

	want := "#chromosome\tstart\tstop\tref\tvar\n" +
		"chr1\t11\t11\tA\tT\n" +
		"chr1\t5\t6\t-\tG\n" +
		"chr2\t100\t102\tATG\t-\n" +
		"chr3\t2\t5\tAAAA\tTTTT\n"
	assert.Equal(t, want, buf.String())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "skipping invalid coordinate", entry.Message)
	assert.Equal(t, int64(4), entry.ContextMap()["line"])
	assert.Equal(t, "chr3", entry.ContextMap()["chrom"])

	// The sink sees records as given, not converted.
	assert.Equal(t, []int{1, 2, 3, 5}, sink.lines)
	assert.Equal(t, "chr2\t100\t102\tATG\t-", sink.coords[2])
	assert.True(t, sink.flushed)
}

func TestNormalizer_Strict(t *testing.T) {
	var buf bytes.Buffer

	n := NewNormalizer(coord.ZeroBased)
	n.SetStrict(true)
	n.SetHeader(false)
	sink := &memSink{}
	n.SetSink(sink)

	stats, err := n.Run(newParser(t, mixedInput), output.NewTabWriter(&buf, coord.ZeroBased))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
	assert.True(t, IsClassificationError(err))
	assert.Equal(t, 3, stats.Converted)

	// The store keeps nothing from a failed run; the output keeps what was
	// converted before the failure.
	assert.True(t, sink.discarded)
	assert.False(t, sink.flushed)
	assert.Empty(t, sink.coords)
	assert.Equal(t, "chr1\t10\t11\tA\tT\n"+
		"chr1\t5\t5\t-\tG\n"+
		"chr2\t99\t102\tATG\t-\n", buf.String())
}

func TestNormalizer_ParseErrorDiscardsSink(t *testing.T) {
	var buf bytes.Buffer

	n := NewNormalizer(coord.ZeroBased)
	sink := &memSink{}
	n.SetSink(sink)

	_, err := n.Run(newParser(t, "chr1\t10\t11\tA\tT\nchr1\tx\t10\tA\tT\n"), output.NewTabWriter(&buf, coord.ZeroBased))
	require.Error(t, err)
	assert.True(t, sink.discarded)
	assert.Empty(t, sink.coords)
}

func TestNormalizer_NoHeader(t *testing.T) {
	var buf bytes.Buffer

	n := NewNormalizer(coord.ZeroBased)
	n.SetHeader(false)

	_, err := n.Run(newParser(t, "chr1\t10\t10\tA\tT\n"), output.NewTabWriter(&buf, coord.ZeroBased))
	require.NoError(t, err)
	assert.Equal(t, "chr1\t9\t10\tA\tT\n", buf.String())
}

func TestNormalizer_ParseError(t *testing.T) {
	var buf bytes.Buffer

	n := NewNormalizer(coord.ZeroBased)
	_, err := n.Run(newParser(t, "chr1\tx\t10\tA\tT\n"), output.NewTabWriter(&buf, coord.ZeroBased))
	require.Error(t, err)
	assert.False(t, IsClassificationError(err))

	var perr *tsv.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestNormalizer_Empty(t *testing.T) {
	var buf bytes.Buffer
	core, logs := observer.New(zapcore.InfoLevel)

	n := NewNormalizer(coord.ZeroBased)
	n.SetLogger(zap.New(core))

	stats, err := n.Run(newParser(t, ""), output.NewTabWriter(&buf, coord.ZeroBased))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Read)
	assert.Equal(t, 1, logs.FilterMessage("0 records processed").Len())
}

func TestNormalizer_MAF(t *testing.T) {
	p, err := maf.NewParser(findTestFile(t, "sample.maf"))
	require.NoError(t, err)
	defer p.Close()

	var buf bytes.Buffer
	n := NewNormalizer(coord.ZeroBased)
	n.SetHeader(false)

	stats, err := n.Run(p, output.NewTabWriter(&buf, coord.ZeroBased))
	require.NoError(t, err)

	// MAF is one-based throughout.
	assert.Equal(t, 5, stats.Converted)
	assert.Equal(t, 5, stats.BySystem[coord.OneBased])
	assert.Equal(t, 1, stats.ByType[coord.Substitution])

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "12\t25398284\t25398285\tC\tA", lines[1])
	assert.Equal(t, "7\t55242464\t55242479\tGGAATTAAGAGAAGC\t-", lines[2])
	assert.Equal(t, "17\t37880981\t37880981\t-\tGCATACGTGATG", lines[3])
}

func findTestFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join("..", "..", "testdata", name)
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("Test file not found: %s", name)
	}
	return p
}
