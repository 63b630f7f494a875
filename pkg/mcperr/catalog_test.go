package mcperr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/fuelprice/internal/datasets"
	"github.com/vinodismyname/fuelprice/internal/security"
	"github.com/vinodismyname/fuelprice/internal/survey"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"format", &survey.FormatError{Line: 3, Column: "date", Value: "x"}, FormatError},
		{"wrapped format", fmt.Errorf("normalize: %w", &survey.FormatError{Line: 3}), FormatError},
		{"period", &survey.PeriodError{Line: 2, Start: time.Now(), End: time.Now()}, PeriodInvalid},
		{"missing", &survey.MissingInputError{Path: "a.csv", Err: os.ErrNotExist}, MissingInput},
		{"not found", security.ErrNotFound, MissingInput},
		{"handle", fmt.Errorf("datasets: aggregate: %w", datasets.ErrHandleNotFound), InvalidHandle},
		{"capacity", fmt.Errorf("%w: %w", datasets.ErrCapacity, context.DeadlineExceeded), BusyResource},
		{"denied", security.ErrNotAllowed, PermissionDenied},
		{"extension", security.ErrUnsupportedExtension, UnsupportedFormat},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"other", errors.New("boom"), AnalysisFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.err, AnalysisFailed))
		})
	}
}

func TestFromText_AddsGuidance(t *testing.T) {
	res := FromText("VALIDATION: path is required")
	require.True(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	require.Equal(t, "VALIDATION: path is required | nextSteps: Correct the inputs per schema and retry", text)
}

func TestNew_DefaultMessageAndUnknownCode(t *testing.T) {
	require.Contains(t, normalize(InvalidHandle, ""), "INVALID_HANDLE: dataset handle not found or expired")
	require.Equal(t, "NOPE: detail", normalize(Code("NOPE"), "detail"))
	require.Equal(t, "NOPE", normalize(Code("NOPE"), ""))

	e, ok := Lookup(BusyResource)
	require.True(t, ok)
	require.True(t, e.Retryable)
}
