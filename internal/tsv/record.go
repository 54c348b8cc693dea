// Package tsv reads five-column tab-delimited coordinate files
// (chromosome, start, stop, reference, variant).
package tsv

// Record is one unclassified coordinate line as read from an input file.
type Record struct {
	Chrom string // Chromosome name, passed through unchanged
	Start int64  // Start position, in whatever system the file uses
	Stop  int64  // Stop position
	Ref   string // Reference allele, "-", "." or "0" for no base
	Var   string // Variant allele
	Line  int    // 1-based line number in the input
}

// RecordParser is the interface for readers that produce coordinate records.
// The TSV, MAF and VCF parsers implement it.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
