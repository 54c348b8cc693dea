// Package vcf reads VCF data lines as coordinate records.
package vcf

import (
	"strings"

	"github.com/inodb/coordconv/internal/tsv"
)

// Variant represents a single data line from a VCF file.
type Variant struct {
	Chrom string // Chromosome name (e.g., "12", "chr12")
	Pos   int64  // 1-based genomic position
	ID    string // Variant identifier (e.g., rs ID)
	Ref   string // Reference allele
	Alt   string // Alternate allele(s), comma separated
}

// IsMultiAllelic returns true if the variant lists more than one alternate allele.
func (v *Variant) IsMultiAllelic() bool {
	return strings.Contains(v.Alt, ",")
}

// IsSymbolic returns true for ALT values that do not spell out bases:
// structural variants (<DEL>), breakends, spanning deletions (*) and
// missing alleles (.).
func (v *Variant) IsSymbolic() bool {
	switch {
	case v.Alt == "*" || v.Alt == ".":
		return true
	case strings.HasPrefix(v.Alt, "<"):
		return true
	case strings.ContainsAny(v.Alt, "[]"):
		return true
	}
	return false
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsInsertion returns true for an anchored insertion (REF=A, ALT=AT).
func (v *Variant) IsInsertion() bool {
	return len(v.Ref) == 1 && len(v.Alt) > 1 && v.Ref[0] == v.Alt[0]
}

// IsDeletion returns true for an anchored deletion (REF=AT, ALT=A).
func (v *Variant) IsDeletion() bool {
	return len(v.Alt) == 1 && len(v.Ref) > 1 && v.Ref[0] == v.Alt[0]
}

// Record converts the variant to a one-based coordinate record, dropping the
// VCF anchor base of simple indels:
//
//	REF=A  ALT=AT   ->  start=pos    stop=pos+1       ref=-  var=T
//	REF=AT ALT=A    ->  start=pos+1  stop=pos+len-1   ref=T  var=-
//
// Other alleles keep their bases and span pos..pos+len(ref)-1.
func (v *Variant) Record(line int) *tsv.Record {
	r := &tsv.Record{
		Chrom: v.Chrom,
		Start: v.Pos,
		Stop:  v.Pos + int64(len(v.Ref)) - 1,
		Ref:   v.Ref,
		Var:   v.Alt,
		Line:  line,
	}

	switch {
	case v.IsInsertion():
		r.Ref = "-"
		r.Var = v.Alt[1:]
		r.Stop = v.Pos + 1
	case v.IsDeletion():
		r.Ref = v.Ref[1:]
		r.Var = "-"
		r.Start = v.Pos + 1
		r.Stop = v.Pos + int64(len(v.Ref)) - 1
	}

	return r
}
