// Package export writes aggregation results to workbook and database files.
package export

import "github.com/vinodismyname/fuelprice/internal/aggregate"

// Result set names, used as sheet names in workbooks and table names in
// databases, in output order.
const (
	MonthlyAverage  = "monthly_average"
	MonthlyWeighted = "monthly_weighted"
	StateAverage    = "state_average"
	RegionAverage   = "region_average"
	MonthlyVariance = "monthly_variance"
	MonthlyRange    = "monthly_range"
	TopSpread       = "top_spread"
)

type column struct {
	name    string
	sqlType string
}

// table is a result set flattened to typed columns and rows of cell values.
// Undefined statistics are nil cells.
type table struct {
	name string
	cols []column
	rows [][]any
}

func (t table) header() []any {
	h := make([]any, len(t.cols))
	for i, c := range t.cols {
		h[i] = c.name
	}
	return h
}

func texts(names ...string) []column { return typed("TEXT", names) }
func reals(names ...string) []column { return typed("REAL", names) }
func integer(name string) []column   { return typed("INTEGER", []string{name}) }

func typed(sqlType string, names []string) []column {
	out := make([]column, len(names))
	for i, n := range names {
		out[i] = column{name: n, sqlType: sqlType}
	}
	return out
}

func cols(groups ...[]column) []column {
	var out []column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func tables(rep *aggregate.Report) []table {
	cityMonth := texts("state", "municipality", "year_month", "product")
	key := func(k aggregate.CityMonthKey) []any { return []any{k.State, k.Municipality, k.YearMonth, k.Product} }

	var out []table

	t := table{name: MonthlyAverage, cols: cols(cityMonth, reals("avg_price"), integer("weeks"))}
	for _, r := range rep.MonthlyAverages {
		t.rows = append(t.rows, append(key(r.CityMonthKey), r.AvgPrice, r.Weeks))
	}
	out = append(out, t)

	if rep.MonthlyWeighted != nil {
		t = table{name: MonthlyWeighted, cols: cols(cityMonth, reals("weighted_avg_price"), integer("stations"), integer("weeks"))}
		for _, r := range rep.MonthlyWeighted {
			t.rows = append(t.rows, append(key(r.CityMonthKey), cell(r.AvgPrice), r.Stations, r.Weeks))
		}
		out = append(out, t)
	}

	t = table{name: StateAverage, cols: cols(texts("state", "product"), reals("avg_price"))}
	for _, r := range rep.StateAverages {
		t.rows = append(t.rows, []any{r.State, r.Product, r.AvgPrice})
	}
	out = append(out, t)

	t = table{name: RegionAverage, cols: cols(texts("region", "product"), reals("avg_price"))}
	for _, r := range rep.RegionAverages {
		t.rows = append(t.rows, []any{r.Region, r.Product, r.AvgPrice})
	}
	out = append(out, t)

	t = table{name: MonthlyVariance, cols: cols(cityMonth, reals("min_variance", "max_variance"), integer("weeks"))}
	for _, r := range rep.Variances {
		t.rows = append(t.rows, append(key(r.CityMonthKey), cell(r.MinVariance), cell(r.MaxVariance), r.Weeks))
	}
	out = append(out, t)

	t = table{name: MonthlyRange, cols: cols(cityMonth,
		reals("min_price_low", "min_price_high", "min_range", "max_price_low", "max_price_high", "max_range"))}
	for _, r := range rep.Ranges {
		t.rows = append(t.rows, append(key(r.CityMonthKey),
			r.MinPriceLow, r.MinPriceHigh, r.MinRange, r.MaxPriceLow, r.MaxPriceHigh, r.MaxRange))
	}
	out = append(out, t)

	t = table{name: TopSpread, cols: cols(texts("product"), integer("rank"), texts("state", "municipality"),
		reals("min_price", "max_price", "spread"))}
	for _, pr := range rep.TopSpreads {
		for i, c := range pr.Cities {
			t.rows = append(t.rows, []any{pr.Product, i + 1, c.State, c.Municipality, c.MinPrice, c.MaxPrice, c.Spread})
		}
	}
	out = append(out, t)
	return out
}

func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
