package coord

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate is matched by every *InvalidCoordinateError.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ClassificationError reports a record whose alleles or positions do not
// resolve to a single mutation type and coordinate system.
type ClassificationError struct {
	Chromosome   string
	Start        int64
	Stop         int64
	Ref          string
	Var          string
	MutationType MutationType // MutationUnknown if the alleles did not resolve
	Reason       string
}

func (e *ClassificationError) Error() string {
	if e.MutationType == MutationUnknown {
		return fmt.Sprintf("classify %s:%d-%d %s>%s: %s",
			e.Chromosome, e.Start, e.Stop, e.Ref, e.Var, e.Reason)
	}
	return fmt.Sprintf("classify %s:%d-%d %s>%s: %s (mutation type %s)",
		e.Chromosome, e.Start, e.Stop, e.Ref, e.Var, e.Reason, e.MutationType)
}

// InvalidCoordinateError is returned when a conversion is requested from a
// record that failed classification, or towards an unknown system.
type InvalidCoordinateError struct {
	Chromosome string
	Start      int64
	Stop       int64
	Err        error
}

func (e *InvalidCoordinateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("convert %s:%d-%d: %v", e.Chromosome, e.Start, e.Stop, ErrInvalidCoordinate)
	}
	return fmt.Sprintf("convert %s:%d-%d: %v: %v", e.Chromosome, e.Start, e.Stop, ErrInvalidCoordinate, e.Err)
}

func (e *InvalidCoordinateError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInvalidCoordinate) match.
func (e *InvalidCoordinateError) Is(target error) bool {
	return target == ErrInvalidCoordinate
}
