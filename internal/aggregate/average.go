package aggregate

import (
	"cmp"

	"github.com/vinodismyname/fuelprice/internal/survey"
)

// MonthlyCityAverage is the mean weekly average resale price of one city,
// product and month.
type MonthlyCityAverage struct {
	CityMonthKey
	AvgPrice float64 `json:"avg_price"`
	Weeks    int     `json:"weeks"`
}

// MonthlyCityAverages averages the weekly AvgPrice per (state, municipality,
// year_month, product). Weekly values are averaged unweighted; use
// MonthlyCityWeightedAverages for the station-weighted figure.
func MonthlyCityAverages(rows []survey.Normalized) []MonthlyCityAverage {
	groups := group(rows, cityMonthKey)
	out := make([]MonthlyCityAverage, 0, len(groups))
	for _, k := range sortedKeys(groups, CityMonthKey.compare) {
		idx := groups[k]
		out = append(out, MonthlyCityAverage{CityMonthKey: k, AvgPrice: mean(rows, idx, avgPrice), Weeks: len(idx)})
	}
	return out
}

// MonthlyCityWeighted is the station-weighted monthly average. AvgPrice is
// nil when no station was surveyed in any week of the group.
type MonthlyCityWeighted struct {
	CityMonthKey
	AvgPrice *float64 `json:"avg_price"`
	Stations int      `json:"stations"`
	Weeks    int      `json:"weeks"`
}

// MonthlyCityWeightedAverages computes Σ(avg·stations)/Σ(stations) per
// (state, municipality, year_month, product).
func MonthlyCityWeightedAverages(rows []survey.Normalized) []MonthlyCityWeighted {
	groups := group(rows, cityMonthKey)
	out := make([]MonthlyCityWeighted, 0, len(groups))
	for _, k := range sortedKeys(groups, CityMonthKey.compare) {
		idx := groups[k]
		var weighted float64
		var stations int
		for _, i := range idx {
			weighted += rows[i].AvgPrice * float64(rows[i].Stations)
			stations += rows[i].Stations
		}
		row := MonthlyCityWeighted{CityMonthKey: k, Stations: stations, Weeks: len(idx)}
		if stations > 0 {
			v := weighted / float64(stations)
			row.AvgPrice = &v
		}
		out = append(out, row)
	}
	return out
}

// StateAverage is the mean weekly average price of a product in a state.
type StateAverage struct {
	State    string  `json:"state"`
	Product  string  `json:"product"`
	AvgPrice float64 `json:"avg_price"`
}

// RegionAverage is the mean weekly average price of a product in a region.
type RegionAverage struct {
	Region   string  `json:"region"`
	Product  string  `json:"product"`
	AvgPrice float64 `json:"avg_price"`
}

type areaKey struct{ area, product string }

func compareArea(a, b areaKey) int {
	return cmp.Or(cmp.Compare(a.area, b.area), cmp.Compare(a.product, b.product))
}

// StateAverages averages AvgPrice per (state, product) over the whole period.
func StateAverages(rows []survey.Normalized) []StateAverage {
	groups := group(rows, func(r *survey.Normalized) areaKey { return areaKey{r.State, r.Product} })
	out := make([]StateAverage, 0, len(groups))
	for _, k := range sortedKeys(groups, compareArea) {
		out = append(out, StateAverage{State: k.area, Product: k.product, AvgPrice: mean(rows, groups[k], avgPrice)})
	}
	return out
}

// RegionAverages averages AvgPrice per (region, product) over the whole period.
func RegionAverages(rows []survey.Normalized) []RegionAverage {
	groups := group(rows, func(r *survey.Normalized) areaKey { return areaKey{r.Region, r.Product} })
	out := make([]RegionAverage, 0, len(groups))
	for _, k := range sortedKeys(groups, compareArea) {
		out = append(out, RegionAverage{Region: k.area, Product: k.product, AvgPrice: mean(rows, groups[k], avgPrice)})
	}
	return out
}
