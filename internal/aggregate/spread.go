package aggregate

import (
	"cmp"
	"slices"

	"github.com/vinodismyname/fuelprice/internal/survey"
)

// CitySpread is the all-period price spread of one product in one city.
type CitySpread struct {
	State        string  `json:"state"`
	Municipality string  `json:"municipality"`
	Product      string  `json:"product"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	Spread       float64 `json:"spread"`
}

// ProductRanking lists the cities with the widest spread for one product.
type ProductRanking struct {
	Product string       `json:"product"`
	Cities  []CitySpread `json:"cities"`
}

type cityKey struct{ state, municipality, product string }

// CitySpreads computes max(MaxPrice) - min(MinPrice) per (state,
// municipality, product) across the whole dataset, ordered by product in
// first-appearance order and then by spread descending.
func CitySpreads(rows []survey.Normalized) []CitySpread {
	var products []string
	seen := map[string]int{}
	acc := map[cityKey]*CitySpread{}
	for i := range rows {
		r := &rows[i]
		if _, ok := seen[r.Product]; !ok {
			seen[r.Product] = len(products)
			products = append(products, r.Product)
		}
		k := cityKey{r.State, r.Municipality, r.Product}
		s, ok := acc[k]
		if !ok {
			acc[k] = &CitySpread{State: r.State, Municipality: r.Municipality, Product: r.Product, MinPrice: r.MinPrice, MaxPrice: r.MaxPrice}
			continue
		}
		s.MinPrice = min(s.MinPrice, r.MinPrice)
		s.MaxPrice = max(s.MaxPrice, r.MaxPrice)
	}

	out := make([]CitySpread, 0, len(acc))
	for _, s := range acc {
		s.Spread = s.MaxPrice - s.MinPrice
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b CitySpread) int {
		return cmp.Or(
			cmp.Compare(seen[a.Product], seen[b.Product]),
			cmp.Compare(b.Spread, a.Spread),
			cmp.Compare(a.State, b.State),
			cmp.Compare(a.Municipality, b.Municipality),
		)
	})
	return out
}

// TopSpreads ranks, independently for each product, the n cities with the
// largest spread. Each list has min(n, cities selling that product) entries.
func TopSpreads(rows []survey.Normalized, n int) []ProductRanking {
	var out []ProductRanking
	for _, s := range CitySpreads(rows) {
		if len(out) == 0 || out[len(out)-1].Product != s.Product {
			out = append(out, ProductRanking{Product: s.Product})
		}
		last := &out[len(out)-1]
		if len(last.Cities) < n {
			last.Cities = append(last.Cities, s)
		}
	}
	return out
}
