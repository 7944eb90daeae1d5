package models

// FactorScores holds the six dimension scores in their fixed order.
// Each dimension is bounded by its own cap; the sum is the composite.
type FactorScores struct {
	Fee       float64 `json:"fee"`        // max 15
	Scale     float64 `json:"scale"`      // max 15
	ShortTerm float64 `json:"short_term"` // max 20
	LongTerm  float64 `json:"long_term"`  // max 25
	Excess    float64 `json:"excess"`     // max 10
	Stability float64 `json:"stability"`  // max 15
}

// Sum returns the composite score, range [0, 100].
func (s FactorScores) Sum() float64 {
	return s.Fee + s.Scale + s.ShortTerm + s.LongTerm + s.Excess + s.Stability
}

// ScoredFund is a Fund with its cohort-relative scores. Rank is 1-based and
// assigned by the ranker; zero means unranked.
type ScoredFund struct {
	Fund      Fund         `json:"fund"`
	Factors   FactorScores `json:"factors"`
	Composite float64      `json:"composite"`
	Rank      int          `json:"rank"`
}
