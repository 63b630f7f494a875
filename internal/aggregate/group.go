// Package aggregate computes the grouped views over a normalized survey.
// Every pass is a read-only function of its input rows; passes never share
// state, so Run may execute them concurrently.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/vinodismyname/fuelprice/internal/survey"
)

// CityMonthKey groups rows by city, bucket and product.
type CityMonthKey struct {
	State        string `json:"state"`
	Municipality string `json:"municipality"`
	YearMonth    string `json:"year_month"`
	Product      string `json:"product"`
}

func cityMonthKey(r *survey.Normalized) CityMonthKey {
	return CityMonthKey{State: r.State, Municipality: r.Municipality, YearMonth: r.YearMonth, Product: r.Product}
}

func (k CityMonthKey) compare(o CityMonthKey) int {
	return cmp.Or(
		cmp.Compare(k.State, o.State),
		cmp.Compare(k.Municipality, o.Municipality),
		cmp.Compare(k.YearMonth, o.YearMonth),
		cmp.Compare(k.Product, o.Product),
	)
}

// group collects row indexes by key, preserving input order inside each group.
func group[K comparable](rows []survey.Normalized, key func(*survey.Normalized) K) map[K][]int {
	out := make(map[K][]int)
	for i := range rows {
		k := key(&rows[i])
		out[k] = append(out[k], i)
	}
	return out
}

// sortedKeys returns the map keys ordered by cmpFn.
func sortedKeys[K comparable, V any](m map[K]V, cmpFn func(a, b K) int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmpFn)
	return keys
}

func mean(rows []survey.Normalized, idx []int, field func(*survey.Normalized) float64) float64 {
	var sum float64
	for _, i := range idx {
		sum += field(&rows[i])
	}
	return sum / float64(len(idx))
}

func avgPrice(r *survey.Normalized) float64 { return r.AvgPrice }
func minPrice(r *survey.Normalized) float64 { return r.MinPrice }
func maxPrice(r *survey.Normalized) float64 { return r.MaxPrice }
