// Package report renders aggregation results as markdown tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/vinodismyname/fuelprice/internal/aggregate"
)

// Markdown renders every result set of rep as a markdown document.
func Markdown(rep *aggregate.Report) string {
	var b strings.Builder

	b.WriteString("# Fuel price survey\n\n")

	section(&b, "Monthly average by city",
		[]string{"State", "Municipality", "Month", "Product", "Avg price", "Weeks"},
		len(rep.MonthlyAverages), func(i int) []string {
			r := rep.MonthlyAverages[i]
			return []string{r.State, r.Municipality, r.YearMonth, r.Product, price(r.AvgPrice), fmt.Sprint(r.Weeks)}
		})

	if rep.MonthlyWeighted != nil {
		section(&b, "Station-weighted monthly average by city",
			[]string{"State", "Municipality", "Month", "Product", "Weighted avg", "Stations"},
			len(rep.MonthlyWeighted), func(i int) []string {
				r := rep.MonthlyWeighted[i]
				return []string{r.State, r.Municipality, r.YearMonth, r.Product, nullable(r.AvgPrice), fmt.Sprint(r.Stations)}
			})
	}

	section(&b, "Average by state",
		[]string{"State", "Product", "Avg price"},
		len(rep.StateAverages), func(i int) []string {
			r := rep.StateAverages[i]
			return []string{r.State, r.Product, price(r.AvgPrice)}
		})

	section(&b, "Average by region",
		[]string{"Region", "Product", "Avg price"},
		len(rep.RegionAverages), func(i int) []string {
			r := rep.RegionAverages[i]
			return []string{r.Region, r.Product, price(r.AvgPrice)}
		})

	section(&b, "Monthly variance by city",
		[]string{"State", "Municipality", "Month", "Product", "Min price var", "Max price var"},
		len(rep.Variances), func(i int) []string {
			r := rep.Variances[i]
			return []string{r.State, r.Municipality, r.YearMonth, r.Product, nullable(r.MinVariance), nullable(r.MaxVariance)}
		})

	section(&b, "Monthly absolute variation by city",
		[]string{"State", "Municipality", "Month", "Product", "Min price low", "Min price high", "Min price var abs", "Max price low", "Max price high", "Max price var abs"},
		len(rep.Ranges), func(i int) []string {
			r := rep.Ranges[i]
			return []string{r.State, r.Municipality, r.YearMonth, r.Product,
				price(r.MinPriceLow), price(r.MinPriceHigh), price(r.MinRange),
				price(r.MaxPriceLow), price(r.MaxPriceHigh), price(r.MaxRange)}
		})

	for _, pr := range rep.TopSpreads {
		section(&b, fmt.Sprintf("Top %d price spread: %s", rep.TopN, pr.Product),
			[]string{"#", "State", "Municipality", "Lowest min price", "Highest max price", "Spread"},
			len(pr.Cities), func(i int) []string {
				c := pr.Cities[i]
				return []string{fmt.Sprint(i + 1), c.State, c.Municipality, price(c.MinPrice), price(c.MaxPrice), price(c.Spread)}
			})
	}
	return b.String()
}

// Render writes md to w, through glamour unless plain is set.
func Render(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err != nil {
		return fmt.Errorf("report: build renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func section(b *strings.Builder, title string, header []string, n int, row func(int) []string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if n == 0 {
		b.WriteString("_no rows_\n\n")
		return
	}
	writeRow(b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(b, sep)
	for i := 0; i < n; i++ {
		writeRow(b, row(i))
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func price(v float64) string { return fmt.Sprintf("%.3f", v) }

// nullable prints NaN for undefined statistics.
func nullable(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return price(*v)
}
