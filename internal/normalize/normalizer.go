// Package normalize drives coordinate records from a parser through
// classification and conversion to a writer.
package normalize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/coordconv/internal/coord"
	"github.com/inodb/coordconv/internal/tsv"
)

// CoordinateWriter defines the interface for writing converted coordinates.
type CoordinateWriter interface {
	WriteHeader() error
	Write(c *coord.Coordinate) error
	Flush() error
}

// Sink receives every valid coordinate in addition to the writer,
// e.g. a database store. A run either ends with Flush or, when it fails,
// with Discard, which must drop everything added during the run.
type Sink interface {
	Add(c *coord.Coordinate, line int) error
	Flush() error
	Discard() error
}

// Stats summarizes a normalization run.
type Stats struct {
	Read      int
	Converted int
	Skipped   int
	ByType    map[coord.MutationType]int
	BySystem  map[coord.System]int // inferred source system
}

func newStats() Stats {
	return Stats{
		ByType:   make(map[coord.MutationType]int),
		BySystem: make(map[coord.System]int),
	}
}

// Normalizer converts records to a target coordinate system.
type Normalizer struct {
	target coord.System
	strict bool
	header bool
	sink   Sink
	logger *zap.Logger
}

// NewNormalizer creates a normalizer emitting coordinates in target.
func NewNormalizer(target coord.System) *Normalizer {
	return &Normalizer{
		target: target,
		header: true,
		logger: zap.NewNop(),
	}
}

// SetStrict makes Run abort on the first record that fails classification
// instead of skipping it.
func (n *Normalizer) SetStrict(strict bool) {
	n.strict = strict
}

// SetHeader configures whether Run writes a header line first.
func (n *Normalizer) SetHeader(header bool) {
	n.header = header
}

// SetSink sets an additional destination for valid coordinates.
func (n *Normalizer) SetSink(s Sink) {
	n.sink = s
}

// SetLogger sets the logger for warning and info messages.
func (n *Normalizer) SetLogger(l *zap.Logger) {
	n.logger = l
}

// Target returns the coordinate system records are converted to.
func (n *Normalizer) Target() coord.System {
	return n.target
}

// Run reads every record from parser, classifies it and writes it in the
// target system. One Coordinate is reused for all records.
//
// If Run fails, the sink is discarded and the writer is flushed, so the sink
// holds nothing from this run and the writer holds the records converted
// before the failure.
func (n *Normalizer) Run(parser tsv.RecordParser, writer CoordinateWriter) (Stats, error) {
	stats := newStats()

	if err := n.run(parser, writer, &stats); err != nil {
		return stats, n.abort(writer, err)
	}

	if n.sink != nil {
		if err := n.sink.Flush(); err != nil {
			return stats, n.abort(writer, fmt.Errorf("flush store: %w", err))
		}
	}

	return stats, writer.Flush()
}

func (n *Normalizer) run(parser tsv.RecordParser, writer CoordinateWriter, stats *Stats) error {
	if n.header {
		if err := writer.WriteHeader(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	var c coord.Coordinate
	for {
		rec, err := parser.Next()
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if rec == nil {
			break
		}
		stats.Read++

		if err := c.Set(rec.Chrom, rec.Start, rec.Stop, rec.Ref, rec.Var); err != nil {
			if n.strict {
				return fmt.Errorf("line %d: %w", rec.Line, err)
			}
			stats.Skipped++
			n.logger.Warn("skipping invalid coordinate",
				zap.String("chrom", rec.Chrom),
				zap.Int64("start", rec.Start),
				zap.Int64("stop", rec.Stop),
				zap.Int("line", rec.Line),
				zap.Error(err))
			continue
		}

		if err := writer.Write(&c); err != nil {
			return fmt.Errorf("write coordinate: %w", err)
		}
		if n.sink != nil {
			if err := n.sink.Add(&c, rec.Line); err != nil {
				return fmt.Errorf("store coordinate: %w", err)
			}
		}

		stats.Converted++
		stats.ByType[c.MutationType()]++
		stats.BySystem[c.System()]++
	}

	if stats.Read == 0 {
		n.logger.Info("0 records processed")
	}
	return nil
}

// abort discards the sink and flushes the writer after a failed run.
func (n *Normalizer) abort(writer CoordinateWriter, err error) error {
	errs := []error{err}
	if n.sink != nil {
		if derr := n.sink.Discard(); derr != nil {
			errs = append(errs, fmt.Errorf("discard store: %w", derr))
		}
	}
	if ferr := writer.Flush(); ferr != nil {
		errs = append(errs, fmt.Errorf("flush output: %w", ferr))
	}
	return errors.Join(errs...)
}

// IsClassificationError reports whether err stems from a record that could
// not be classified, as opposed to an I/O or parse failure.
func IsClassificationError(err error) bool {
	var cerr *coord.ClassificationError
	return errors.As(err, &cerr)
}
