package eop

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by queries issued before any load operation
// has installed a table.
var ErrNotInitialized = errors.New("earth orientation data is uninitialized, call a load method first")

// ParseError reports a malformed mandatory field or structurally invalid
// line in an Earth orientation data product. It aborts the whole load; a
// partial table is never installed.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing EOP data on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// OutOfRangeError reports a query outside the valid bounds of the loaded
// data while the table's extrapolation policy is ExtrapolateError.
type OutOfRangeError struct {
	Field   string
	MJD     float64
	MJDMin  float64
	MJDMax  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s requested at MJD %v, beyond loaded EOP data [%v, %v]",
		e.Field, e.MJD, e.MJDMin, e.MJDMax)
}

// InvariantError reports unsorted or duplicate epochs detected at table
// construction. Well-formed data products never trigger it; it signals a
// parser defect rather than a user error, and is never silently corrected.
type InvariantError struct {
	Index int
	MJD   float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("EOP records unsorted or duplicated at index %d (MJD %v)", e.Index, e.MJD)
}
