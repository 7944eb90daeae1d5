package scoring

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func dp(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func testFund(code string, mut func(*models.Fund)) models.Fund {
	f := models.Fund{
		Code:     code,
		Name:     "基金" + code,
		Category: models.CategoryForCode(code),
		Fees:     models.FeeSchedule{TotalAnnual: 0.002},
		Scale:    26,
	}
	if mut != nil {
		mut(&f)
	}
	return f
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestScoreSingletonTopsEveryBand(t *testing.T) {
	f := testFund("510300", func(f *models.Fund) {
		f.YTD = fp(12.5)
		f.FiveYear = fp(80)
		f.ExcessReturn = fp(2.1)
		f.EstablishedOn = dp(2019, 5, 4)
	})

	scored := ScoreCohortAt([]models.Fund{f}, testNow)
	if len(scored) != 1 {
		t.Fatalf("expected 1 scored fund, got %d", len(scored))
	}

	fs := scored[0].Factors
	approx(t, "fee", fs.Fee, 15)
	approx(t, "scale", fs.Scale, 15)
	approx(t, "short term", fs.ShortTerm, 20)
	approx(t, "long term", fs.LongTerm, 25)
	approx(t, "excess", fs.Excess, 10)
	approx(t, "stability", fs.Stability, 15)
	approx(t, "composite", scored[0].Composite, 100)
}

func TestScoreNeutralDefaults(t *testing.T) {
	f := testFund("016630", func(f *models.Fund) {
		f.Scale = 0
	})

	scored := ScoreCohortAt([]models.Fund{f}, testNow)
	fs := scored[0].Factors

	approx(t, "fee", fs.Fee, 15)
	approx(t, "scale", fs.Scale, 15)
	if fs.ShortTerm != 10 {
		t.Fatalf("short term = %v, want neutral 10", fs.ShortTerm)
	}
	if fs.LongTerm != 12 {
		t.Fatalf("long term = %v, want neutral 12", fs.LongTerm)
	}
	if fs.Excess != 5 {
		t.Fatalf("excess = %v, want neutral 5", fs.Excess)
	}
	if fs.Stability != 8 {
		t.Fatalf("stability = %v, want neutral 8", fs.Stability)
	}
	approx(t, "composite", scored[0].Composite, 65)
}

func TestScoreLowerFeeScoresHigher(t *testing.T) {
	cheap := testFund("510300", func(f *models.Fund) { f.Fees.TotalAnnual = 0.001 })
	dear := testFund("001594", func(f *models.Fund) { f.Fees.TotalAnnual = 0.01 })

	scored := ScoreCohortAt([]models.Fund{cheap, dear}, testNow)

	approx(t, "cheap fee", scored[0].Factors.Fee, 15)
	approx(t, "dear fee", scored[1].Factors.Fee, 9.5)
	if scored[0].Factors.Fee <= scored[1].Factors.Fee {
		t.Fatalf("cheaper fund must outscore: %v <= %v", scored[0].Factors.Fee, scored[1].Factors.Fee)
	}
}

func TestScoreScaleNearIdealWins(t *testing.T) {
	ideal := testFund("510300", func(f *models.Fund) { f.Scale = 26 })
	tiny := testFund("159915", func(f *models.Fund) { f.Scale = 1 })
	giant := testFund("510500", func(f *models.Fund) { f.Scale = 500 })

	scored := ScoreCohortAt([]models.Fund{ideal, tiny, giant}, testNow)

	approx(t, "ideal scale", scored[0].Factors.Scale, 15)
	approx(t, "tiny scale", scored[1].Factors.Scale, 10+5.0/6)
	approx(t, "giant scale", scored[2].Factors.Scale, 9+1.0/6)
	if !(scored[0].Factors.Scale > scored[1].Factors.Scale && scored[1].Factors.Scale > scored[2].Factors.Scale) {
		t.Fatalf("expected ideal > tiny > giant, got %v %v %v",
			scored[0].Factors.Scale, scored[1].Factors.Scale, scored[2].Factors.Scale)
	}
}

func TestScoreShortTermOrdering(t *testing.T) {
	ytds := []float64{50, 20, 10, 5, -10}
	cohort := make([]models.Fund, 0, len(ytds))
	for i, r := range ytds {
		r := r
		cohort = append(cohort, testFund(string(rune('0'+i))+"10300", func(f *models.Fund) { f.YTD = &r }))
	}

	scored := ScoreCohortAt(cohort, testNow)

	for i := 1; i < len(scored); i++ {
		if scored[i-1].Factors.ShortTerm <= scored[i].Factors.ShortTerm {
			t.Fatalf("short term not strictly decreasing at %d: %v <= %v",
				i, scored[i-1].Factors.ShortTerm, scored[i].Factors.ShortTerm)
		}
	}
	approx(t, "best short term", scored[0].Factors.ShortTerm, 20)
	approx(t, "worst short term", scored[4].Factors.ShortTerm, 9.5)
}

func TestScoreLongTermPoolExcludesMissing(t *testing.T) {
	a := testFund("510300", func(f *models.Fund) { f.FiveYear = fp(100) })
	b := testFund("510500", func(f *models.Fund) { f.FiveYear = fp(50) })
	c := testFund("159915", nil)

	scored := ScoreCohortAt([]models.Fund{a, b, c}, testNow)

	// c is out of the pool, so a and b split a two-fund pool.
	approx(t, "a long term", scored[0].Factors.LongTerm, 25)
	approx(t, "b long term", scored[1].Factors.LongTerm, 15.5)
	if scored[2].Factors.LongTerm != 12 {
		t.Fatalf("fund without history = %v, want neutral 12", scored[2].Factors.LongTerm)
	}
}

func TestScoreStabilityOlderWins(t *testing.T) {
	old := testFund("510300", func(f *models.Fund) { f.EstablishedOn = dp(2016, 1, 1) })
	young := testFund("016630", func(f *models.Fund) { f.EstablishedOn = dp(2024, 7, 1) })
	unknown := testFund("159915", nil)

	scored := ScoreCohortAt([]models.Fund{old, young, unknown}, testNow)

	approx(t, "old stability", scored[0].Factors.Stability, 15)
	approx(t, "young stability", scored[1].Factors.Stability, 8.5)
	if scored[2].Factors.Stability != 8 {
		t.Fatalf("unknown inception = %v, want neutral 8", scored[2].Factors.Stability)
	}
}

func TestScoreExcessTiesShareTopPercentile(t *testing.T) {
	a := testFund("510300", func(f *models.Fund) { f.ExcessReturn = fp(2.5) })
	b := testFund("510500", func(f *models.Fund) { f.ExcessReturn = fp(2.5) })

	scored := ScoreCohortAt([]models.Fund{a, b}, testNow)

	if scored[0].Factors.Excess != scored[1].Factors.Excess {
		t.Fatalf("tied funds diverged: %v vs %v", scored[0].Factors.Excess, scored[1].Factors.Excess)
	}
	approx(t, "tied excess", scored[0].Factors.Excess, 10)
}

func TestScoreCompositeBounded(t *testing.T) {
	cohort := []models.Fund{
		testFund("510300", func(f *models.Fund) {
			f.YTD = fp(25.5)
			f.FiveYear = fp(120)
			f.ExcessReturn = fp(4.2)
			f.EstablishedOn = dp(2012, 5, 28)
			f.Scale = 580.3
			f.Fees.TotalAnnual = 0.005
		}),
		testFund("159915", func(f *models.Fund) {
			f.YTD = fp(-8.4)
			f.EstablishedOn = dp(2011, 9, 20)
			f.Scale = 92.1
		}),
		testFund("016630", func(f *models.Fund) {
			f.YTD = fp(3.2)
			f.FiveYear = fp(-12)
			f.ExcessReturn = fp(-1.1)
			f.Scale = 2.4
			f.Fees.TotalAnnual = 0.0182
		}),
		testFund("001594", nil),
	}

	for _, s := range ScoreCohortAt(cohort, testNow) {
		if s.Composite < 0 || s.Composite > 100 {
			t.Fatalf("composite %v out of range for %s", s.Composite, s.Fund.Code)
		}
		fs := s.Factors
		for name, pair := range map[string][2]float64{
			"fee":        {fs.Fee, 15},
			"scale":      {fs.Scale, 15},
			"short term": {fs.ShortTerm, 20},
			"long term":  {fs.LongTerm, 25},
			"excess":     {fs.Excess, 10},
			"stability":  {fs.Stability, 15},
		} {
			if pair[0] < 0 || pair[0] > pair[1] {
				t.Fatalf("%s %s = %v out of [0, %v]", s.Fund.Code, name, pair[0], pair[1])
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	build := func() []models.Fund {
		return []models.Fund{
			testFund("510300", func(f *models.Fund) {
				f.YTD = fp(12.34)
				f.FiveYear = fp(67.5)
				f.ExcessReturn = fp(1.25)
				f.EstablishedOn = dp(2015, 3, 9)
				f.Scale = 88.8
				f.Fees.TotalAnnual = 0.0062
			}),
			testFund("159915", func(f *models.Fund) {
				f.YTD = fp(-2.5)
				f.Scale = 14.2
			}),
			testFund("016630", nil),
		}
	}

	first := ScoreCohortAt(build(), testNow)
	second := ScoreCohortAt(build(), testNow)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same cohort and moment produced different scores")
	}
}

func TestScoreEmptyCohort(t *testing.T) {
	if got := ScoreCohortAt(nil, testNow); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := ScoreCohortAt([]models.Fund{}, testNow); got != nil {
		t.Fatalf("expected nil for empty slice, got %v", got)
	}
}

func TestAnnualizedFiveYear(t *testing.T) {
	got, ok := annualizedFiveYear(fp(100))
	if !ok {
		t.Fatalf("expected ok")
	}
	approx(t, "annualized doubling", got, (math.Pow(2, 0.2)-1)*100)

	if _, ok := annualizedFiveYear(nil); ok {
		t.Fatalf("nil input must not produce a value")
	}
}
