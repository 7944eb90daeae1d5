package morningstar

import (
	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/util"
)

// Default fee profile substituted when the fees sub-resource is absent
// entirely. Values are annual fractions.
const (
	defaultManagementFee = 0.0015
	defaultCustodyFee    = 0.0005
	defaultTotalFee      = 0.002
)

// Fallback percentages applied when the fees payload is present but a
// figure is missing or zero.
const (
	fallbackManagementPct = 0.15
	fallbackCustodyPct    = 0.05
)

// normalizeFund maps raw provider payloads onto the canonical Fund.
// Pure: no clock, no I/O, no shared state.
func normalizeFund(raw rawFund, nameHint string) models.Fund {
	fund := models.Fund{
		Code:     raw.code,
		Name:     displayName(raw, nameHint),
		Category: models.CategoryForCode(raw.code),
		Fees:     normalizeFees(raw.fees),
	}

	if raw.common != nil {
		if raw.common.FundSize != 0 {
			fund.Scale = util.Round2(raw.common.FundSize / 1e8)
		}
		if t, ok := util.ParseDate(raw.common.InceptionDate); ok {
			fund.EstablishedOn = &t
		}
	}

	if raw.performance != nil {
		fund.BenchmarkName = raw.performance.BenchmarkName
		returns := raw.performance.DayEnd.Returns
		bench := raw.performance.DayEnd.BenchmarkReturns

		// Derived from the unrounded figures, before the display
		// rounding below. Absent stays absent: defaulting to zero or
		// false here would bias the scoring downstream.
		if returns.YTD != nil && bench.YTD != nil {
			excess := util.Round2(*returns.YTD - *bench.YTD)
			beats := *returns.YTD > *bench.YTD
			fund.ExcessReturn = &excess
			fund.BeatsBenchmark = &beats
		}

		fund.YTD = roundedCopy(returns.YTD)
		fund.ThreeYear = roundedCopy(returns.Y3)
		fund.FiveYear = roundedCopy(returns.Y5)
	}

	return fund
}

func displayName(raw rawFund, hint string) string {
	if hint != "" {
		return hint
	}
	if raw.common != nil {
		if raw.common.Name != "" {
			return raw.common.Name
		}
		if raw.common.FundName != "" {
			return raw.common.FundName
		}
	}
	return "基金" + raw.code
}

// normalizeFees converts provider percentages into annual fractions and
// computes the total once, in fixed order. Downstream consumers treat
// the total as authoritative and never re-derive it from components.
func normalizeFees(p *feesPayload) models.FeeSchedule {
	if p == nil || p.Fees == nil {
		return models.FeeSchedule{
			Management:  defaultManagementFee,
			Custody:     defaultCustodyFee,
			TotalAnnual: defaultTotalFee,
		}
	}

	f := p.Fees
	fees := models.FeeSchedule{
		Management:   pctOrDefault(f.ManagementFee, fallbackManagementPct) / 100,
		Custody:      pctOrDefault(f.CustodianFee, fallbackCustodyPct) / 100,
		SalesService: pctOrDefault(f.DistributionFee, 0) / 100,
		Transaction:  pctOrDefault(f.TradeCost, 0) / 100,
		Other:        pctOrDefault(f.OtherCost, 0) / 100,
	}
	fees.TotalAnnual = fees.Management + fees.Custody + fees.Subscription +
		fees.Redemption + fees.SalesService + fees.Transaction + fees.Other
	return fees
}

// pctOrDefault treats zero the same as absent, mirroring the provider's
// habit of sending 0 for undisclosed figures.
func pctOrDefault(v *float64, def float64) float64 {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}

func roundedCopy(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := util.Round2(*v)
	return &r
}
