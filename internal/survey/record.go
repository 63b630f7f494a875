package survey

import "time"

// Source column headers of the weekly municipal survey. They are the literal
// input schema and are matched after trimming surrounding whitespace.
const (
	ColState            = "ESTADO"
	ColMunicipality     = "MUNICÍPIO"
	ColRegion           = "REGIÃO"
	ColProduct          = "PRODUTO"
	ColPeriodStart      = "DATA INICIAL"
	ColPeriodEnd        = "DATA FINAL"
	ColAvgResalePrice   = "PREÇO MÉDIO REVENDA"
	ColMinResalePrice   = "PREÇO MÍNIMO REVENDA"
	ColMaxResalePrice   = "PREÇO MÁXIMO REVENDA"
	ColStationsSurveyed = "NÚMERO DE POSTOS PESQUISADOS"
)

// RequiredColumns lists every header the loader must find.
var RequiredColumns = []string{
	ColState, ColMunicipality, ColRegion, ColProduct,
	ColPeriodStart, ColPeriodEnd,
	ColAvgResalePrice, ColMinResalePrice, ColMaxResalePrice,
	ColStationsSurveyed,
}

// Record is one raw survey row with every field kept as source text.
type Record struct {
	Line int

	State        string `validate:"required"`
	Municipality string `validate:"required"`
	Region       string `validate:"required"`
	Product      string `validate:"required"`

	PeriodStart string
	PeriodEnd   string

	AvgResalePrice   string
	MinResalePrice   string
	MaxResalePrice   string
	StationsSurveyed string
}

// Normalized is a Record with parsed dates, numeric prices and the derived
// year-month bucket. Values are never mutated after normalization.
type Normalized struct {
	Line int

	State        string
	Municipality string
	Region       string
	Product      string

	PeriodStart time.Time
	PeriodEnd   time.Time
	YearMonth   string

	AvgPrice float64
	MinPrice float64
	MaxPrice float64
	Stations int
}
