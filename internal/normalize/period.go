package normalize

import (
	"fmt"
	"time"

	"github.com/vinodismyname/fuelprice/internal/survey"
)

// DateLayout is the survey's day/month/year date format.
const DateLayout = "02/01/2006"

// maxPeriod bounds the distance between the first and last day of a weekly window.
const maxPeriod = 7 * 24 * time.Hour

// ParseDate parses a DD/MM/YYYY date into UTC midnight.
func ParseDate(text string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, &survey.FormatError{Column: "date", Value: text, Err: fmt.Errorf("want DD/MM/YYYY")}
	}
	return t, nil
}

// AssignYearMonth returns the YYYYMM bucket of a weekly window: the month
// holding more days of the window wins and ties go to the end month.
// It assumes end is after start and at most a week later; see CheckPeriod.
func AssignYearMonth(start, end time.Time) string {
	tail := daysIn(start.Year(), start.Month()) - start.Day()
	head := end.Day() - 1
	if tail > head {
		return yearMonth(start)
	}
	return yearMonth(end)
}

// CheckPeriod rejects windows whose end is not after start or that span
// more than a week.
func CheckPeriod(start, end time.Time) error {
	d := end.Sub(start)
	if d <= 0 || d > maxPeriod {
		return &survey.PeriodError{Start: start, End: end}
	}
	return nil
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func yearMonth(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}
