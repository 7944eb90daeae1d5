package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func fp(v float64) *float64 { return &v }
func bp(v bool) *bool       { return &v }

func fullScored() models.ScoredFund {
	est := time.Date(2021, 3, 12, 0, 0, 0, 0, time.UTC)
	return models.ScoredFund{
		Fund: models.Fund{
			Code:     "510300",
			Name:     "沪深300ETF",
			Category: models.CategoryExchange,
			Fees: models.FeeSchedule{
				Management:  0.005,
				Custody:     0.001,
				Transaction: 0.0008,
				Other:       0.0002,
				TotalAnnual: 0.007,
			},
			Scale:          120.5,
			YTD:            fp(12.34),
			FiveYear:       fp(56.7),
			EstablishedOn:  &est,
			BenchmarkName:  "沪深300指数",
			ExcessReturn:   fp(1.25),
			BeatsBenchmark: bp(true),
		},
		Factors: models.FactorScores{
			Fee: 14.8, Scale: 13.5, ShortTerm: 18, LongTerm: 22, Excess: 9, Stability: 12,
		},
		Composite: 89.3,
		Rank:      1,
	}
}

func sparseScored() models.ScoredFund {
	return models.ScoredFund{
		Fund: models.Fund{
			Code:     "000001",
			Name:     "华夏成长",
			Category: models.CategoryOTC,
			Fees:     models.FeeSchedule{TotalAnnual: 0.015},
			Scale:    3.2,
		},
		Factors: models.FactorScores{
			Fee: 6, Scale: 4, ShortTerm: 10, LongTerm: 12, Excess: 5, Stability: 8,
		},
		Composite: 45,
		Rank:      2,
	}
}

func sampleResult() *models.RankResult {
	return &models.RankResult{
		Sector:      "白酒",
		GeneratedAt: testNow,
		Ranked:      []models.ScoredFund{fullScored(), sparseScored()},
		Failures: []models.FetchFailure{
			{Code: "000404", Kind: models.FailureNotFound, Err: "fund 000404 not found"},
		},
		Requested: 3,
		Succeeded: 2,
		Failed:    1,
		Advisory:  "| 1 | 510300 | 沪深300ETF | ... |",
	}
}

func TestRenderFullRun(t *testing.T) {
	out := Render(sampleResult(), 20)

	for _, want := range []string{
		"# 白酒板块基金排名",
		"**生成时间**: 2026-01-15 09:00:00",
		"**基金总数**: 2只（请求3，成功2，失败1）",
		"## 工具评分结果（前20名）",
		"- **长期业绩 (25分)**: 5年收益率越高得分越高（无5年数据得默认12分）",
		"| 排名 | 代码 | 名称 | 类型 | 总评分 |",
		"| 1 | 510300 | 沪深300ETF | 场内 | 89.3 |",
		"14.8 / 0.70% (显性0.60%+隐性0.10%)",
		"13.5 / 120.50亿",
		"18.0 / 12.34%",
		"22.0 / 56.70%",
		"9.0 / 跑赢 (+1.25%)",
		"12.0 / 4.8年 (2021-03-12)",
		"| 沪深300指数 |",
		"## 获取失败",
		"| 000404 | not_found | fund 000404 not found |",
		"## AI评分结果",
		"| 1 | 510300 | 沪深300ETF | ... |",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q\n%s", want, out)
		}
	}
}

func TestRenderMissingValuesShowNA(t *testing.T) {
	out := Render(sampleResult(), 20)

	for _, want := range []string{
		"10.0 / N/A", // no YTD
		"12.0 / N/A", // no five-year return
		"5.0 / N/A",  // no benchmark comparison
		"8.0 / N/A",  // no inception date
		"| 45.0 |",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q\n%s", want, out)
		}
	}
}

func TestRenderBoundsTable(t *testing.T) {
	r := sampleResult()
	out := Render(r, 1)

	if !strings.Contains(out, "| 1 | 510300 |") {
		t.Fatalf("first row missing")
	}
	if strings.Contains(out, "| 2 | 000001 |") {
		t.Fatalf("table should stop at topN")
	}
	if !strings.Contains(out, "## 工具评分结果（前1名）") {
		t.Fatalf("heading should carry topN")
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	r := sampleResult()
	r.Failures = nil
	r.Failed = 0
	r.Advisory = ""
	out := Render(r, 20)

	if strings.Contains(out, "## 获取失败") {
		t.Fatalf("failure section should be absent")
	}
	if strings.Contains(out, "## AI评分结果") {
		t.Fatalf("advisory section should be absent")
	}
}

func TestWriterWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs", "nested")
	w := NewWriter(dir, 20, testLogger(t))

	path, err := w.Write(sampleResult())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "白酒_20260115.md" {
		t.Fatalf("unexpected file name %q", path)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(body), "# 白酒板块基金排名") {
		t.Fatalf("file content wrong: %q", body)
	}
}

func TestWriterOverwritesSameDay(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 20, testLogger(t))

	if _, err := w.Write(sampleResult()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	r := sampleResult()
	r.Advisory = "第二次运行"
	path, err := w.Write(r)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}

	body, _ := os.ReadFile(path)
	if !strings.Contains(string(body), "第二次运行") {
		t.Fatalf("second run should overwrite")
	}
}
