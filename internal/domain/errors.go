package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientDates is returned by DateBounds when the input holds fewer
// than two distinct dates, leaving no effective start date to choose.
var ErrInsufficientDates = errors.New("need at least two distinct test dates")

// IngestionError wraps a failure to obtain or decode a source payload.
// It is fatal: no output is produced after one occurs.
type IngestionError struct {
	Source string // "records" or "geography"
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// MissingCountyDataError reports a geography county with no matching record
// for a date the reshaper needs. Failing fast here is the alternative to
// emitting positionally misaligned metric arrays.
type MissingCountyDataError struct {
	County string
	Date   string
}

func (e *MissingCountyDataError) Error() string {
	return fmt.Sprintf("no record for county %q on %s", e.County, e.Date)
}

// LookupError reports a date-keyed lookup against an index that cannot
// satisfy it at all (an empty index). A miss against a non-empty index is
// clamped by the display layer instead, since an end user has no recovery
// path from a hard failure there.
type LookupError struct {
	Date string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no time series entry for date %q", e.Date)
}
