package util

import (
	"math"
	"time"
)

// ParseDate parses a provider calendar date (YYYY-MM-DD). Returns (t, true)
// when it parsed.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Round2 rounds to 2 decimals, the provider's display precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
