package normalize

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vinodismyname/fuelprice/internal/survey"
)

// ParseDecimal converts a comma-decimal price such as "4,567" to 4.567.
func ParseDecimal(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if s == "" {
		return 0, &survey.FormatError{Column: "decimal", Value: text, Err: errors.New("empty value")}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &survey.FormatError{Column: "decimal", Value: text, Err: err}
	}
	return d.InexactFloat64(), nil
}

// ParseCount parses a non-negative integer count such as the number of
// surveyed stations.
func ParseCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &survey.FormatError{Column: "count", Value: text, Err: err}
	}
	if n < 0 {
		return 0, &survey.FormatError{Column: "count", Value: text, Err: errors.New("negative count")}
	}
	return n, nil
}
