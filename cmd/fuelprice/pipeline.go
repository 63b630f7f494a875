package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
	"github.com/vinodismyname/fuelprice/internal/normalize"
	"github.com/vinodismyname/fuelprice/internal/survey"
)

// analysisFlags are shared by report and export.
type analysisFlags struct {
	input    string
	top      int
	weighted bool
}

// analyse loads, normalizes and aggregates the survey at a.input.
func analyse(ctx context.Context, a analysisFlags) (*aggregate.Report, error) {
	logger := zerolog.Ctx(ctx)
	started := time.Now()

	records, err := survey.LoadFile(a.input)
	if err != nil {
		return nil, err
	}
	rows, err := normalize.Normalize(ctx, records)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("input", a.input).Int("rows", len(rows)).Dur("elapsed", time.Since(started)).Msg("survey normalized")

	rep, err := aggregate.Run(ctx, rows, aggregate.Options{TopN: a.top, Weighted: a.weighted})
	if err != nil {
		return nil, err
	}
	logger.Debug().Dur("elapsed", time.Since(started)).Msg("aggregation finished")
	return rep, nil
}

// failure logs err with the fields of its survey error type and returns the
// failure exit status.
func failure(ctx context.Context, err error) subcommands.ExitStatus {
	evt := zerolog.Ctx(ctx).Error().Err(err)
	var (
		formatErr  *survey.FormatError
		periodErr  *survey.PeriodError
		missingErr *survey.MissingInputError
	)
	switch {
	case errors.As(err, &formatErr):
		evt = evt.Int("line", formatErr.Line).Str("column", formatErr.Column)
	case errors.As(err, &periodErr):
		evt = evt.Int("line", periodErr.Line)
	case errors.As(err, &missingErr):
		evt = evt.Str("path", missingErr.Path)
	}
	evt.Msg("fuelprice failed")
	return subcommands.ExitFailure
}
