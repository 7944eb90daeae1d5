package models

import "time"

// RankResult is the full outcome of one ranking run.
type RankResult struct {
	Sector      string    `json:"sector,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	Ranked   []ScoredFund   `json:"ranked"`
	Failures []FetchFailure `json:"failures,omitempty"`

	// Cohort summary for reporting.
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// Advisory is the optional model-written second opinion. Empty when
	// the advisor is disabled or its call failed; never blocks a run.
	Advisory string `json:"advisory,omitempty"`
}
