package mcperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vinodismyname/fuelprice/internal/datasets"
	"github.com/vinodismyname/fuelprice/internal/security"
	"github.com/vinodismyname/fuelprice/internal/survey"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Input
	Validation    Code = "VALIDATION"
	InvalidHandle Code = "INVALID_HANDLE"
	CursorInvalid Code = "CURSOR_INVALID"

	// Survey data
	FormatError   Code = "FORMAT_ERROR"
	PeriodInvalid Code = "PERIOD_INVALID"
	MissingInput  Code = "MISSING_INPUT"

	// Resource & limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// IO
	OpenFailed     Code = "OPEN_FAILED"
	AnalysisFailed Code = "ANALYSIS_FAILED"
	WriteFailed    Code = "WRITE_FAILED"

	// Access
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidHandle: {Code: InvalidHandle, Message: "dataset handle not found or expired", Retryable: true, NextSteps: []string{"Call load_survey again and retry with the new dataset_id"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart pagination from the first page"}},

	FormatError:   {Code: FormatError, Message: "survey field does not match its expected format", Retryable: false, NextSteps: []string{"Fix the reported line and column in the source file"}},
	PeriodInvalid: {Code: PeriodInvalid, Message: "survey period is not a regular week", Retryable: false, NextSteps: []string{"Check DATA INICIAL and DATA FINAL on the reported line"}},
	MissingInput:  {Code: MissingInput, Message: "survey file not found or unreadable", Retryable: true, NextSteps: []string{"Verify the path and permissions"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay", "Close unused datasets with close_survey"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry; aggregation results are cached once computed"}},

	OpenFailed:     {Code: OpenFailed, Message: "failed to load survey", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	AnalysisFailed: {Code: AnalysisFailed, Message: "aggregation failed", Retryable: true, NextSteps: []string{"Retry or reload the dataset"}},
	WriteFailed:    {Code: WriteFailed, Message: "failed to write export", Retryable: false, NextSteps: []string{"Check the target directory is writable"}},

	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported file format", Retryable: false, NextSteps: []string{"Use a .csv survey, or .xlsx/.db/.sqlite for exports"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "path is outside the allowed directories", Retryable: false, NextSteps: []string{"Choose a path under FUELPRICE_ALLOWED_DIRS"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize renders "CODE: message | nextSteps: ..." for clients that only
// surface the message string.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	code, msg, _ := strings.Cut(t, ":")
	return mcp.NewToolResultError(normalize(Code(strings.TrimSpace(code)), strings.TrimSpace(msg)))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// Classify maps a pipeline error onto its code, or fallback when the error
// has no specific mapping.
func Classify(err error, fallback Code) Code {
	var (
		formatErr  *survey.FormatError
		periodErr  *survey.PeriodError
		missingErr *survey.MissingInputError
	)
	switch {
	case errors.As(err, &formatErr):
		return FormatError
	case errors.As(err, &periodErr):
		return PeriodInvalid
	case errors.As(err, &missingErr), errors.Is(err, security.ErrNotFound):
		return MissingInput
	case errors.Is(err, datasets.ErrCapacity):
		return BusyResource
	case errors.Is(err, datasets.ErrHandleNotFound):
		return InvalidHandle
	case errors.Is(err, security.ErrNotAllowed):
		return PermissionDenied
	case errors.Is(err, security.ErrUnsupportedExtension):
		return UnsupportedFormat
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	}
	return fallback
}

// FromError returns the tool error result for err, classified by Classify.
func FromError(err error, fallback Code) *mcp.CallToolResult {
	return New(Classify(err, fallback), err.Error())
}
