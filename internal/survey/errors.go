package survey

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is matched by every FormatError via errors.Is.
var ErrMalformed = errors.New("survey: malformed field")

// FormatError reports a field that does not match its expected textual
// pattern, or a structural problem with the header or a row.
type FormatError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("survey: line %d: column %q", e.Line, e.Column)
	if e.Value != "" {
		msg += fmt.Sprintf(": value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrMalformed }

// PeriodError reports a weekly window whose end is not after its start or
// which spans more than one week.
type PeriodError struct {
	Line       int
	Start, End time.Time
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("survey: line %d: irregular period %s..%s",
		e.Line, e.Start.Format("02/01/2006"), e.End.Format("02/01/2006"))
}

// MissingInputError reports an absent or unreadable source file.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("survey: cannot read input %q: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }
