package morningstar

import (
	"math"
	"testing"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestNormalizeFullPayload(t *testing.T) {
	raw := rawFund{
		code: "510300",
		common: &commonPayload{
			Name:          "华泰柏瑞沪深300ETF",
			InceptionDate: "2012-05-04",
			FundSize:      321_000_000,
		},
		performance: &performancePayload{BenchmarkName: "沪深300指数"},
		fees: &feesPayload{Fees: &feeFigures{
			ManagementFee:   fp(0.5),
			CustodianFee:    fp(0.1),
			DistributionFee: fp(0.2),
			TradeCost:       fp(0.08),
			OtherCost:       fp(0.02),
		}},
	}
	raw.performance.DayEnd.Returns = returnSeries{YTD: fp(12.3456), Y3: fp(30.0), Y5: fp(55.5)}
	raw.performance.DayEnd.BenchmarkReturns = returnSeries{YTD: fp(10.1)}

	fund := normalizeFund(raw, "")

	if fund.Code != "510300" || fund.Name != "华泰柏瑞沪深300ETF" {
		t.Errorf("identity wrong: %s %s", fund.Code, fund.Name)
	}
	if fund.Category != models.CategoryExchange {
		t.Errorf("category = %s, want %s", fund.Category, models.CategoryExchange)
	}
	approx(t, "scale", fund.Scale, 3.21)
	if fund.EstablishedOn == nil || fund.EstablishedOn.Year() != 2012 {
		t.Errorf("establishedOn = %v", fund.EstablishedOn)
	}
	if fund.BenchmarkName != "沪深300指数" {
		t.Errorf("benchmark = %s", fund.BenchmarkName)
	}

	approx(t, "management", fund.Fees.Management, 0.005)
	approx(t, "custody", fund.Fees.Custody, 0.001)
	approx(t, "salesService", fund.Fees.SalesService, 0.002)
	approx(t, "transaction", fund.Fees.Transaction, 0.0008)
	approx(t, "other", fund.Fees.Other, 0.0002)
	approx(t, "totalAnnual", fund.Fees.TotalAnnual, 0.009)

	if fund.YTD == nil || *fund.YTD != 12.35 {
		t.Errorf("YTD = %v, want 12.35", fund.YTD)
	}
	if fund.ThreeYear == nil || *fund.ThreeYear != 30.0 {
		t.Errorf("ThreeYear = %v", fund.ThreeYear)
	}
	if fund.FiveYear == nil || *fund.FiveYear != 55.5 {
		t.Errorf("FiveYear = %v", fund.FiveYear)
	}

	// excess is derived from unrounded returns
	if fund.ExcessReturn == nil || *fund.ExcessReturn != 2.25 {
		t.Errorf("ExcessReturn = %v, want 2.25", fund.ExcessReturn)
	}
	if fund.BeatsBenchmark == nil || !*fund.BeatsBenchmark {
		t.Errorf("BeatsBenchmark = %v, want true", fund.BeatsBenchmark)
	}
}

func TestNormalizeNamePrecedence(t *testing.T) {
	cases := []struct {
		name string
		raw  rawFund
		hint string
		want string
	}{
		{
			name: "hint wins over provider",
			raw:  rawFund{code: "000001", common: &commonPayload{Name: "provider name"}},
			hint: "中证下载名称",
			want: "中证下载名称",
		},
		{
			name: "provider name",
			raw:  rawFund{code: "000001", common: &commonPayload{Name: "名称A", FundName: "名称B"}},
			want: "名称A",
		},
		{
			name: "fundName fallback",
			raw:  rawFund{code: "000001", common: &commonPayload{FundName: "名称B"}},
			want: "名称B",
		},
		{
			name: "synthesized placeholder",
			raw:  rawFund{code: "000001", common: &commonPayload{}},
			want: "基金000001",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fund := normalizeFund(tc.raw, tc.hint)
			if fund.Name != tc.want {
				t.Errorf("name = %q, want %q", fund.Name, tc.want)
			}
		})
	}
}

func TestNormalizeDefaultFeeProfile(t *testing.T) {
	for _, raw := range []rawFund{
		{code: "000001", common: &commonPayload{}},
		{code: "000001", common: &commonPayload{}, fees: &feesPayload{}},
	} {
		fund := normalizeFund(raw, "")
		approx(t, "management", fund.Fees.Management, 0.0015)
		approx(t, "custody", fund.Fees.Custody, 0.0005)
		approx(t, "totalAnnual", fund.Fees.TotalAnnual, 0.002)
	}
}

func TestNormalizeZeroFeeTreatedAsAbsent(t *testing.T) {
	raw := rawFund{
		code:   "000001",
		common: &commonPayload{},
		fees:   &feesPayload{Fees: &feeFigures{ManagementFee: fp(0)}},
	}

	fund := normalizeFund(raw, "")
	approx(t, "management", fund.Fees.Management, 0.0015)
	approx(t, "custody", fund.Fees.Custody, 0.0005)
	approx(t, "totalAnnual", fund.Fees.TotalAnnual, 0.002)
}

func TestNormalizeExcessRequiresBothSides(t *testing.T) {
	raw := rawFund{code: "000001", common: &commonPayload{}, performance: &performancePayload{}}
	raw.performance.DayEnd.Returns = returnSeries{YTD: fp(8.0)}

	fund := normalizeFund(raw, "")
	if fund.ExcessReturn != nil || fund.BeatsBenchmark != nil {
		t.Errorf("excess should stay absent without a benchmark: %v %v",
			fund.ExcessReturn, fund.BeatsBenchmark)
	}
	if fund.YTD == nil || *fund.YTD != 8.0 {
		t.Errorf("YTD = %v", fund.YTD)
	}
}

func TestNormalizeNoPerformance(t *testing.T) {
	fund := normalizeFund(rawFund{code: "159915", common: &commonPayload{}}, "")

	if fund.YTD != nil || fund.ThreeYear != nil || fund.FiveYear != nil {
		t.Error("returns should stay absent, not default to zero")
	}
	if fund.ExcessReturn != nil || fund.BeatsBenchmark != nil {
		t.Error("excess should stay absent")
	}
	if fund.BenchmarkName != "" {
		t.Errorf("benchmark = %q", fund.BenchmarkName)
	}
	if fund.Category != models.CategoryExchange {
		t.Errorf("category = %s", fund.Category)
	}
}

func TestNormalizeScale(t *testing.T) {
	fund := normalizeFund(rawFund{code: "000001", common: &commonPayload{FundSize: 0}}, "")
	if fund.Scale != 0 {
		t.Errorf("scale = %v, want 0", fund.Scale)
	}

	fund = normalizeFund(rawFund{code: "000001", common: &commonPayload{FundSize: 2_612_345_678}}, "")
	approx(t, "scale", fund.Scale, 26.12)
}
