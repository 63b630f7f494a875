package aggregate

import "github.com/vinodismyname/fuelprice/internal/survey"

// MonthlyVariance holds the sample variance of the weekly minimum and
// maximum resale prices of one city, product and month. Both are nil for
// groups with fewer than two weeks.
type MonthlyVariance struct {
	CityMonthKey
	MinVariance *float64 `json:"min_variance"`
	MaxVariance *float64 `json:"max_variance"`
	Weeks       int      `json:"weeks"`
}

// MonthlyRange holds the absolute variation of each price series inside a
// month: the spread of the weekly minimums and, separately, of the weekly
// maximums.
type MonthlyRange struct {
	CityMonthKey
	MinPriceLow  float64 `json:"min_price_low"`
	MinPriceHigh float64 `json:"min_price_high"`
	MinRange     float64 `json:"min_range"`
	MaxPriceLow  float64 `json:"max_price_low"`
	MaxPriceHigh float64 `json:"max_price_high"`
	MaxRange     float64 `json:"max_range"`
}

// MonthlyVariances computes the unbiased (N-1) sample variance of MinPrice
// and MaxPrice per (state, municipality, year_month, product).
func MonthlyVariances(rows []survey.Normalized) []MonthlyVariance {
	groups := group(rows, cityMonthKey)
	out := make([]MonthlyVariance, 0, len(groups))
	for _, k := range sortedKeys(groups, CityMonthKey.compare) {
		idx := groups[k]
		out = append(out, MonthlyVariance{
			CityMonthKey: k,
			MinVariance:  sampleVariance(rows, idx, minPrice),
			MaxVariance:  sampleVariance(rows, idx, maxPrice),
			Weeks:        len(idx),
		})
	}
	return out
}

// MonthlyRanges computes max-min of MinPrice and of MaxPrice per
// (state, municipality, year_month, product).
func MonthlyRanges(rows []survey.Normalized) []MonthlyRange {
	groups := group(rows, cityMonthKey)
	out := make([]MonthlyRange, 0, len(groups))
	for _, k := range sortedKeys(groups, CityMonthKey.compare) {
		idx := groups[k]
		minLo, minHi := extremes(rows, idx, minPrice)
		maxLo, maxHi := extremes(rows, idx, maxPrice)
		out = append(out, MonthlyRange{
			CityMonthKey: k,
			MinPriceLow:  minLo,
			MinPriceHigh: minHi,
			MinRange:     minHi - minLo,
			MaxPriceLow:  maxLo,
			MaxPriceHigh: maxHi,
			MaxRange:     maxHi - maxLo,
		})
	}
	return out
}

func sampleVariance(rows []survey.Normalized, idx []int, field func(*survey.Normalized) float64) *float64 {
	if len(idx) < 2 {
		return nil
	}
	m := mean(rows, idx, field)
	var ss float64
	for _, i := range idx {
		d := field(&rows[i]) - m
		ss += d * d
	}
	v := ss / float64(len(idx)-1)
	return &v
}

func extremes(rows []survey.Normalized, idx []int, field func(*survey.Normalized) float64) (lo, hi float64) {
	lo = field(&rows[idx[0]])
	hi = lo
	for _, i := range idx[1:] {
		v := field(&rows[i])
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
