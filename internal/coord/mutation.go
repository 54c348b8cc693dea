package coord

import "fmt"

// MutationType is the kind of edit described by a ref/var allele pair.
type MutationType int

const (
	MutationUnknown MutationType = iota
	SNV                          // single-nucleotide variant
	Insertion                    // no reference base consumed
	Deletion                     // no variant base introduced
	Substitution                 // equal-length block swap, length > 1
)

func (m MutationType) String() string {
	switch m {
	case SNV:
		return "snv"
	case Insertion:
		return "ins"
	case Deletion:
		return "del"
	case Substitution:
		return "sub"
	default:
		return "unknown"
	}
}

// ParseMutationType parses the short mutation type names produced by String.
func ParseMutationType(s string) (MutationType, error) {
	for _, m := range []MutationType{SNV, Insertion, Deletion, Substitution} {
		if s == m.String() {
			return m, nil
		}
	}
	return MutationUnknown, fmt.Errorf("unknown mutation type %q (expected snv, ins, del or sub)", s)
}

// System is a genomic coordinate numbering convention.
type System int

const (
	SystemUnknown System = iota
	ZeroBased            // half-open [start, stop), BED-like
	OneBased             // fully-closed [start, stop], VCF/MAF-like
)

func (s System) String() string {
	switch s {
	case ZeroBased:
		return "zero_based"
	case OneBased:
		return "one_based"
	default:
		return "unknown"
	}
}

// ParseSystem parses a coordinate system name. Besides the canonical
// "zero_based" and "one_based" it accepts the short forms "0" and "1".
func ParseSystem(s string) (System, error) {
	switch s {
	case "zero_based", "zero-based", "zero", "0":
		return ZeroBased, nil
	case "one_based", "one-based", "one", "1":
		return OneBased, nil
	}
	return SystemUnknown, fmt.Errorf("unknown coordinate system %q (expected zero_based or one_based)", s)
}

// isNoBase reports whether an allele is one of the "no base" markers
// used for insertions and deletions.
func isNoBase(allele string) bool {
	switch allele {
	case "-", ".", "0":
		return true
	}
	return false
}

// classify determines the mutation type from the alleles. The order of the
// checks matters: the "no base" markers are one character long and would
// otherwise be taken for an SNV.
func classify(ref, alt string) (MutationType, string) {
	if ref == "" || alt == "" {
		return MutationUnknown, "empty allele"
	}
	switch {
	case isNoBase(ref):
		return Insertion, ""
	case isNoBase(alt):
		return Deletion, ""
	case len(ref) == 1 && len(alt) == 1:
		return SNV, ""
	case len(ref) == len(alt) && len(ref) > 1:
		return Substitution, ""
	}
	return MutationUnknown, "unresolvable mutation type"
}

// inferSystem returns the coordinate system implied by start/stop for the
// given mutation type. Zero-based is checked first. Spans are compared as
// stop-start so that positions near the int64 limits cannot wrap into a match.
func inferSystem(m MutationType, start, stop int64, ref string) System {
	if stop < start {
		return SystemUnknown
	}
	width := stop - start // negative only if the true width exceeds MaxInt64

	switch m {
	case SNV:
		if width == 1 {
			return ZeroBased
		}
		if width == 0 {
			return OneBased
		}
	case Insertion:
		if width == 0 {
			return ZeroBased
		}
		if width == 1 {
			return OneBased
		}
	case Deletion, Substitution:
		n := int64(len(ref))
		if width == n {
			return ZeroBased
		}
		if width == n-1 {
			return OneBased
		}
	case MutationUnknown:
	}
	return SystemUnknown
}

// shift returns the start/stop deltas that move a span of type m from the
// zero-based to the one-based convention. Negate them for the reverse.
func shift(m MutationType) (dStart, dStop int64) {
	switch m {
	case SNV, Deletion, Substitution:
		return 1, 0
	case Insertion:
		return 0, 1
	case MutationUnknown:
	}
	return 0, 0
}

// offset adds d to pos, reporting false if the result does not fit in int64.
func offset(pos, d int64) (int64, bool) {
	r := pos + d
	if (d > 0 && r < pos) || (d < 0 && r > pos) {
		return 0, false
	}
	return r, true
}
