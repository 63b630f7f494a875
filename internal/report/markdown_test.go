package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
)

func sampleReport() *aggregate.Report {
	v := 0.25
	key := aggregate.CityMonthKey{State: "PR", Municipality: "CURITIBA", YearMonth: "201901", Product: "GASOLINA"}
	return &aggregate.Report{
		TopN:            5,
		MonthlyAverages: []aggregate.MonthlyCityAverage{{CityMonthKey: key, AvgPrice: 4.1234, Weeks: 4}},
		StateAverages:   []aggregate.StateAverage{{State: "PR", Product: "GASOLINA", AvgPrice: 4.2}},
		Variances: []aggregate.MonthlyVariance{
			{CityMonthKey: key, MinVariance: &v, MaxVariance: nil, Weeks: 4},
		},
		TopSpreads: []aggregate.ProductRanking{{
			Product: "GASOLINA",
			Cities:  []aggregate.CitySpread{{State: "PR", Municipality: "CURITIBA", Product: "GASOLINA", MinPrice: 3, MaxPrice: 5, Spread: 2}},
		}},
	}
}

func TestMarkdown_Sections(t *testing.T) {
	md := Markdown(sampleReport())

	require.Contains(t, md, "## Monthly average by city")
	require.Contains(t, md, "| PR | CURITIBA | 201901 | GASOLINA | 4.123 | 4 |")
	require.Contains(t, md, "| PR | GASOLINA | 4.200 |")
	require.Contains(t, md, "| 0.250 | NaN |")
	require.Contains(t, md, "## Top 5 price spread: GASOLINA")
	require.Contains(t, md, "| 1 | PR | CURITIBA | 3.000 | 5.000 | 2.000 |")

	// empty result sets are still listed
	require.Contains(t, md, "## Average by region\n\n_no rows_")
	// weighted section only when computed
	require.NotContains(t, md, "Station-weighted")
}

func TestRender_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "# title\n", true))
	require.Equal(t, "# title\n", buf.String())
}

func TestRender_Glamour(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "## Top spread\n\nCURITIBA leads the ranking.\n", false))
	require.True(t, strings.Contains(buf.String(), "CURITIBA"))
}
