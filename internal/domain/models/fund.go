package models

import "time"

// Category tells where a fund is traded, derived from its code prefix.
type Category string

const (
	CategoryExchange Category = "场内" // ETF/LOF/closed-end, traded on exchange
	CategoryOTC      Category = "场外"
)

// exchangePrefixes are the known exchange-traded code prefixes:
// 51/588 (SSE ETF), 159 (SZSE ETF), 16 (LOF), 15 (closed-end).
var exchangePrefixes = []string{"51", "588", "159", "16", "15"}

// CategoryForCode derives the trading category from a fund code prefix.
// Unknown prefixes default to OTC.
func CategoryForCode(code string) Category {
	for _, p := range exchangePrefixes {
		if len(code) >= len(p) && code[:len(p)] == p {
			return CategoryExchange
		}
	}
	return CategoryOTC
}

// FeeSchedule holds a fund's annual cost components as fractions
// (0.0015 means 0.15%). TotalAnnual is computed once at normalization
// and is authoritative; nothing downstream recomputes it.
type FeeSchedule struct {
	Management   float64 `json:"management"`
	Custody      float64 `json:"custody"`
	Subscription float64 `json:"subscription"`
	Redemption   float64 `json:"redemption"`
	SalesService float64 `json:"sales_service"`
	Transaction  float64 `json:"transaction"` // estimated from turnover
	Other        float64 `json:"other"`       // audit, legal, disclosure
	TotalAnnual  float64 `json:"total_annual"`
}

// Fund is one instrument's canonical snapshot for a single run.
// Optional fields are pointers: absent means "not disclosed", never zero.
type Fund struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Category Category    `json:"category"`
	Fees     FeeSchedule `json:"fees"`

	// Scale in 亿 (hundred-million yuan).
	Scale float64 `json:"scale"`

	// Cumulative returns in percent.
	YTD       *float64 `json:"ytd,omitempty"`
	ThreeYear *float64 `json:"three_year,omitempty"`
	FiveYear  *float64 `json:"five_year,omitempty"`

	EstablishedOn *time.Time `json:"established_on,omitempty"`

	// BenchmarkName is the comparison index the provider reports.
	BenchmarkName string `json:"benchmark_name,omitempty"`

	// ExcessReturn = YTD - benchmark YTD, percent, set only when both sides
	// are known. BeatsBenchmark follows its sign.
	ExcessReturn   *float64 `json:"excess_return,omitempty"`
	BeatsBenchmark *bool    `json:"beats_benchmark,omitempty"`
}

// AgeYears returns the fund age at the given moment, or (0, false) when the
// inception date is unknown.
func (f *Fund) AgeYears(now time.Time) (float64, bool) {
	if f.EstablishedOn == nil {
		return 0, false
	}
	return now.Sub(*f.EstablishedOn).Hours() / 24 / 365.25, true
}
