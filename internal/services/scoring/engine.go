package scoring

import (
	"math"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

// idealScale is the fund size, in 亿, the scale dimension treats as optimal.
// Deviation from this point is what gets ranked, in either direction.
const idealScale = 26.0

// ScoreCohort scores every fund against the cohort itself, with the age
// clock pinned to the moment the call is made.
func ScoreCohort(cohort []models.Fund) []models.ScoredFund {
	return ScoreCohortAt(cohort, time.Now())
}

// ScoreCohortAt is ScoreCohort with an explicit clock. Identical cohort and
// moment give bit-identical scores, so archived snapshots can be re-scored
// and compared. Output order follows input order; ranks are not assigned.
func ScoreCohortAt(cohort []models.Fund, now time.Time) []models.ScoredFund {
	if len(cohort) == 0 {
		return nil
	}

	pools := collectPools(cohort, now)

	scored := make([]models.ScoredFund, 0, len(cohort))
	for i := range cohort {
		f := cohort[i]

		ytd, hasYTD := floatValue(f.YTD)
		annual, hasAnnual := annualizedFiveYear(f.FiveYear)
		excess, hasExcess := floatValue(f.ExcessReturn)
		age, hasAge := f.AgeYears(now)

		factors := models.FactorScores{
			Fee:       feeDimension.relative(pools.fees, f.Fees.TotalAnnual, true),
			Scale:     scaleDimension.relative(pools.deviations, math.Abs(f.Scale-idealScale), true),
			ShortTerm: shortTermDimension.relative(pools.ytd, ytd, hasYTD),
			LongTerm:  longTermDimension.relative(pools.annualized, annual, hasAnnual),
			Excess:    excessDimension.relative(pools.excess, excess, hasExcess),
			Stability: stabilityDimension.relative(pools.ages, age, hasAge),
		}

		scored = append(scored, models.ScoredFund{
			Fund:      f,
			Factors:   factors,
			Composite: factors.Sum(),
		})
	}
	return scored
}

// cohortPools holds the comparison pools, one per dimension. Fee and scale
// are always known, so those pools cover the whole cohort; the rest only
// include funds that disclose the field.
type cohortPools struct {
	fees       []float64
	deviations []float64
	ytd        []float64
	annualized []float64
	excess     []float64
	ages       []float64
}

func collectPools(cohort []models.Fund, now time.Time) cohortPools {
	var p cohortPools
	for i := range cohort {
		f := &cohort[i]
		p.fees = append(p.fees, f.Fees.TotalAnnual)
		p.deviations = append(p.deviations, math.Abs(f.Scale-idealScale))
		if f.YTD != nil {
			p.ytd = append(p.ytd, *f.YTD)
		}
		if a, ok := annualizedFiveYear(f.FiveYear); ok {
			p.annualized = append(p.annualized, a)
		}
		if f.ExcessReturn != nil {
			p.excess = append(p.excess, *f.ExcessReturn)
		}
		if age, ok := f.AgeYears(now); ok {
			p.ages = append(p.ages, age)
		}
	}
	return p
}

// annualizedFiveYear converts a cumulative five-year return in percent to
// its annualized equivalent, ((1+r/100)^(1/5) - 1) * 100. Funds without a
// five-year history stay out of the long-term pool entirely.
func annualizedFiveYear(r *float64) (float64, bool) {
	if r == nil {
		return 0, false
	}
	return (math.Pow(1+*r/100, 1.0/5) - 1) * 100, true
}

func floatValue(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
