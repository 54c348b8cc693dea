// Package coord classifies variant coordinates and converts them between the
// zero-based, half-open (BED-like) and one-based, fully-closed (VCF/MAF-like)
// numbering conventions.
//
// A Coordinate infers the convention its positions are expressed in from the
// mutation type and the numeric relationship between start, stop and the
// reference allele length:
//
//	type      zero-based               one-based
//	snv       start+1 == stop          start == stop
//	ins       start == stop            start == stop-1
//	del, sub  start+len(ref) == stop   stop-start == len(ref)-1
package coord

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is one variant's position and alleles together with the
// mutation type and coordinate system derived from them.
//
// The derived fields are only set by New and Set. A Coordinate that failed
// classification stays invalid until Set succeeds with corrected values.
type Coordinate struct {
	chrom  string
	start  int64
	stop   int64
	ref    string
	alt    string
	mtype  MutationType
	system System
	err    error // classification failure, nil when valid
}

// New creates and classifies a coordinate. The returned Coordinate is never
// nil; when err is non-nil it is a *ClassificationError and the coordinate
// reports Valid() == false.
func New(chrom string, start, stop int64, ref, alt string) (*Coordinate, error) {
	c := &Coordinate{}
	err := c.Set(chrom, start, stop, ref, alt)
	return c, err
}

// Set replaces all five inputs and re-runs classification. Nothing from the
// previous state survives, including a previous failure.
func (c *Coordinate) Set(chrom string, start, stop int64, ref, alt string) error {
	*c = Coordinate{
		chrom: chrom,
		start: start,
		stop:  stop,
		ref:   ref,
		alt:   alt,
	}

	mtype, reason := classify(ref, alt)
	if mtype == MutationUnknown {
		return c.fail(MutationUnknown, reason)
	}

	system := inferSystem(mtype, start, stop, ref)
	if system == SystemUnknown {
		return c.fail(mtype, fmt.Sprintf("start %d and stop %d are not valid zero-based or one-based coordinates for this mutation type", start, stop))
	}

	c.mtype = mtype
	c.system = system
	return nil
}

func (c *Coordinate) fail(mtype MutationType, reason string) error {
	c.err = &ClassificationError{
		Chromosome:   c.chrom,
		Start:        c.start,
		Stop:         c.stop,
		Ref:          c.ref,
		Var:          c.alt,
		MutationType: mtype,
		Reason:       reason,
	}
	return c.err
}

// Chromosome returns the chromosome name as given.
func (c *Coordinate) Chromosome() string { return c.chrom }

// Start returns the start position as given.
func (c *Coordinate) Start() int64 { return c.start }

// Stop returns the stop position as given.
func (c *Coordinate) Stop() int64 { return c.stop }

// Ref returns the reference allele.
func (c *Coordinate) Ref() string { return c.ref }

// Var returns the variant allele.
func (c *Coordinate) Var() string { return c.alt }

// MutationType returns the derived mutation type, or MutationUnknown when
// the coordinate is invalid.
func (c *Coordinate) MutationType() MutationType { return c.mtype }

// System returns the inferred coordinate system, or SystemUnknown when the
// coordinate is invalid.
func (c *Coordinate) System() System { return c.system }

// Valid reports whether both the mutation type and the coordinate system
// were resolved.
func (c *Coordinate) Valid() bool { return c.err == nil && c.system != SystemUnknown }

// Err returns the classification failure, or nil for a valid coordinate.
func (c *Coordinate) Err() error { return c.err }

// IsInsertion reports whether the coordinate is a valid insertion.
func (c *Coordinate) IsInsertion() bool { return c.Valid() && c.mtype == Insertion }

// IsSNV reports whether the coordinate is a valid single-nucleotide variant.
func (c *Coordinate) IsSNV() bool { return c.Valid() && c.mtype == SNV }

// Span returns the start and stop positions expressed in the target system.
// The coordinate itself is not modified.
func (c *Coordinate) Span(target System) (start, stop int64, err error) {
	if !c.Valid() {
		return 0, 0, c.invalid(c.err)
	}

	dStart, dStop := shift(c.mtype)
	switch {
	case target == c.system:
		return c.start, c.stop, nil
	case c.system == ZeroBased && target == OneBased:
	case c.system == OneBased && target == ZeroBased:
		dStart, dStop = -dStart, -dStop
	default:
		return 0, 0, c.invalid(fmt.Errorf("unknown target system %q", target))
	}

	start, okStart := offset(c.start, dStart)
	stop, okStop := offset(c.stop, dStop)
	if !okStart || !okStop {
		return 0, 0, c.invalid(fmt.Errorf("position out of range for %s", target))
	}
	return start, stop, nil
}

func (c *Coordinate) invalid(err error) error {
	return &InvalidCoordinateError{
		Chromosome: c.chrom,
		Start:      c.start,
		Stop:       c.stop,
		Err:        err,
	}
}

// Converted returns a new, already classified coordinate expressed in the
// target system.
func (c *Coordinate) Converted(target System) (*Coordinate, error) {
	start, stop, err := c.Span(target)
	if err != nil {
		return nil, err
	}
	return &Coordinate{
		chrom:  c.chrom,
		start:  start,
		stop:   stop,
		ref:    c.ref,
		alt:    c.alt,
		mtype:  c.mtype,
		system: target,
	}, nil
}

// ConvertTo returns the coordinate in the target system as a tab-delimited
// string: chromosome, start, stop, reference, variant.
func (c *Coordinate) ConvertTo(target System) (string, error) {
	start, stop, err := c.Span(target)
	if err != nil {
		return "", err
	}
	return format(c.chrom, start, stop, c.ref, c.alt), nil
}

// ToZeroBased is shorthand for ConvertTo(ZeroBased).
func (c *Coordinate) ToZeroBased() (string, error) {
	return c.ConvertTo(ZeroBased)
}

// ToOneBased is shorthand for ConvertTo(OneBased).
func (c *Coordinate) ToOneBased() (string, error) {
	return c.ConvertTo(OneBased)
}

// String returns the coordinate as given, tab-delimited.
func (c *Coordinate) String() string {
	return format(c.chrom, c.start, c.stop, c.ref, c.alt)
}

func format(chrom string, start, stop int64, ref, alt string) string {
	var b strings.Builder
	b.Grow(len(chrom) + len(ref) + len(alt) + 24)
	b.WriteString(chrom)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(start, 10))
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(stop, 10))
	b.WriteByte('\t')
	b.WriteString(ref)
	b.WriteByte('\t')
	b.WriteString(alt)
	return b.String()
}
