package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/fuelprice/pkg/pagination"
)

type pageInput struct {
	DatasetID string `json:"dataset_id" validate:"required_without=Cursor"`
	YearMonth string `json:"year_month" validate:"omitempty,yearmonth"`
	Level     string `json:"level" validate:"omitempty,oneof=state region"`
	Cursor    string `json:"cursor" validate:"omitempty,cursor"`
}

type pathInput struct {
	Path   string `json:"path" validate:"required,csvpath"`
	Output string `json:"output" validate:"omitempty,exportpath"`
}

func TestValidateStruct(t *testing.T) {
	token, err := pagination.EncodeCursor(pagination.Cursor{Did: "d", T: pagination.TableDispersion, Ps: 10})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"ok", pageInput{DatasetID: "d", YearMonth: "201907"}, ""},
		{"cursor only", pageInput{Cursor: token}, ""},
		{"missing id", pageInput{}, "VALIDATION: dataset_id is required (or supply cursor)"},
		{"bad month", pageInput{DatasetID: "d", YearMonth: "201913"}, "VALIDATION: year_month must be YYYYMM, e.g. 201907"},
		{"bad level", pageInput{DatasetID: "d", Level: "city"}, "VALIDATION: level must be one of [state region]"},
		{"bad cursor", pageInput{Cursor: "!!"}, "CURSOR_INVALID: failed to decode cursor; restart pagination"},
		{"csv", pathInput{Path: "/data/SEMANAL.CSV", Output: "out.sqlite"}, ""},
		{"not csv", pathInput{Path: "/data/survey.xlsx"}, "VALIDATION: path must be a .csv survey file"},
		{"bad output", pathInput{Path: "a.csv", Output: ".xlsx"}, "VALIDATION: output must end in .xlsx, .db or .sqlite"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ValidateStruct(tc.in))
		})
	}
}
