package transform

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrInvalidDate is a date value of an unrecognised length or an
	// impossible calendar date.
	ErrInvalidDate = errors.New("transform: invalid date")
	// ErrAmbiguousDate is a day-only date with no month convention.
	ErrAmbiguousDate = errors.New("transform: ambiguous day-only date")
	// ErrNotInteger is a non-integer value in an integer-only field. It
	// aborts the worksheet.
	ErrNotInteger = errors.New("transform: value is not an integer")
	// ErrNotNumeric is a non-numeric value in a percentage field.
	ErrNotNumeric = errors.New("transform: value is not numeric")
	// ErrStintGap is a populated club column following an empty one.
	ErrStintGap = errors.New("transform: stint columns are not contiguous")
	// ErrStintMismatch is a continuation row whose statistics cannot be
	// attributed to exactly one stint.
	ErrStintMismatch = errors.New("transform: continuation row does not name exactly one club")
	// ErrOrphanRow is a continuation row with no preceding entity.
	ErrOrphanRow = errors.New("transform: continuation row has no preceding entity")
)

// RowError locates a failure within a worksheet.
type RowError struct {
	Sheet string
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	msg := fmt.Sprintf("%s row %d", e.Sheet, e.Row)
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	return msg + ": " + e.Err.Error()
}

func (e *RowError) Unwrap() error { return e.Err }

// --------------------------------------------------------------------------
// Diagnostics
// --------------------------------------------------------------------------

// Warning codes.
const (
	CodeUnmappedColumns = "unmapped_columns"
	CodeUnknownSheet    = "unknown_sheet"
	CodeBlankTeamRow    = "blank_team_row"
	CodeNotNumeric      = "not_numeric"
)

// Diagnostic is a single non-fatal finding.
type Diagnostic struct {
	Code    string
	Message string
	Sheet   string
	Row     int
	Field   string
}

func (d Diagnostic) String() string {
	if d.Row > 0 {
		return fmt.Sprintf("[%s] %s row %d: %s", d.Code, d.Sheet, d.Row, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Sheet, d.Message)
}

// Diagnostics collects findings for one worksheet or file. Warnings never
// affect output; any error fails the file once the worksheet is finished.
type Diagnostics struct {
	Warnings []Diagnostic
	Errors   []error
}

// AddWarning records a warning.
func (d *Diagnostics) AddWarning(code, sheet string, row int, field, message string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Code:    code,
		Message: message,
		Sheet:   sheet,
		Row:     row,
		Field:   field,
	})
}

// AddError records a row-level error.
func (d *Diagnostics) AddError(err error) {
	d.Errors = append(d.Errors, err)
}

// HasErrors returns true if any error was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge appends other's findings.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Errors = append(d.Errors, other.Errors...)
}

// Err joins all recorded errors, or returns nil.
func (d *Diagnostics) Err() error {
	return errors.Join(d.Errors...)
}

// Log writes every finding to logger.
func (d *Diagnostics) Log(logger *slog.Logger) {
	for _, w := range d.Warnings {
		logger.Warn(w.Message, "code", w.Code, "sheet", w.Sheet, "row", w.Row, "field", w.Field)
	}
	for _, err := range d.Errors {
		logger.Error("row rejected", "error", err)
	}
}
