package normalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/fuelprice/internal/survey"
	"github.com/vinodismyname/fuelprice/pkg/validation"
)

// Normalize parses every record into a new slice. Rows are independent of
// each other; the first malformed row aborts the whole run.
func Normalize(ctx context.Context, records []survey.Record) ([]survey.Normalized, error) {
	out := make([]survey.Normalized, 0, len(records))
	for i := range records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		n, err := Record(records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	zerolog.Ctx(ctx).Debug().Int("rows", len(out)).Msg("survey normalized")
	return out, nil
}

// Record normalizes a single raw row.
func Record(r survey.Record) (survey.Normalized, error) {
	n := survey.Normalized{
		Line:         r.Line,
		State:        r.State,
		Municipality: r.Municipality,
		Region:       r.Region,
		Product:      r.Product,
	}
	if err := validation.Validator().Struct(r); err != nil {
		return n, identityError(r, err)
	}

	var err error
	if n.PeriodStart, err = ParseDate(r.PeriodStart); err != nil {
		return n, located(err, r.Line, survey.ColPeriodStart)
	}
	if n.PeriodEnd, err = ParseDate(r.PeriodEnd); err != nil {
		return n, located(err, r.Line, survey.ColPeriodEnd)
	}
	if err := CheckPeriod(n.PeriodStart, n.PeriodEnd); err != nil {
		var pe *survey.PeriodError
		if errors.As(err, &pe) {
			pe.Line = r.Line
		}
		return n, err
	}
	n.YearMonth = AssignYearMonth(n.PeriodStart, n.PeriodEnd)

	if n.AvgPrice, err = ParseDecimal(r.AvgResalePrice); err != nil {
		return n, located(err, r.Line, survey.ColAvgResalePrice)
	}
	if n.MinPrice, err = ParseDecimal(r.MinResalePrice); err != nil {
		return n, located(err, r.Line, survey.ColMinResalePrice)
	}
	if n.MaxPrice, err = ParseDecimal(r.MaxResalePrice); err != nil {
		return n, located(err, r.Line, survey.ColMaxResalePrice)
	}
	if n.Stations, err = ParseCount(r.StationsSurveyed); err != nil {
		return n, located(err, r.Line, survey.ColStationsSurveyed)
	}
	return n, nil
}

// located stamps the source line and header name onto a FormatError.
func located(err error, line int, column string) error {
	var fe *survey.FormatError
	if errors.As(err, &fe) {
		fe.Line = line
		fe.Column = column
	}
	return err
}

func identityError(r survey.Record, err error) error {
	column := "record"
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].StructField() {
		case "State":
			column = survey.ColState
		case "Municipality":
			column = survey.ColMunicipality
		case "Region":
			column = survey.ColRegion
		case "Product":
			column = survey.ColProduct
		}
		err = fmt.Errorf("failed %q check", ve[0].Tag())
	}
	return &survey.FormatError{Line: r.Line, Column: column, Err: err}
}
