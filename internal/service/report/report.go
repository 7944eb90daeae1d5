package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// Writer renders finished runs to Markdown files, one per sector per day.
type Writer struct {
	dir    string
	topN   int
	logger *logger.Logger
}

func NewWriter(dir string, topN int, lgr *logger.Logger) *Writer {
	if topN <= 0 {
		topN = 20
	}
	return &Writer{dir: dir, topN: topN, logger: lgr}
}

// Write renders the run into {sector}_{yyyymmdd}.md under the output
// directory and returns the file path. The date comes from the run's
// GeneratedAt, so re-running a sector the same day overwrites its report.
func (w *Writer) Write(result *models.RankResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.md", result.Sector, result.GeneratedAt.Format("20060102")))
	if err := os.WriteFile(path, []byte(Render(result, w.topN)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	w.logger.Info("report written",
		logger.String("path", path),
		logger.Int("ranked", len(result.Ranked)),
		logger.Int("failed", result.Failed),
	)
	return path, nil
}

// Render produces the full Markdown body for one run. topN bounds the
// ranking table; the advisory section appears only when the run carries one.
func Render(result *models.RankResult, topN int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s板块基金排名\n\n", result.Sector)
	fmt.Fprintf(&b, "**生成时间**: %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**基金总数**: %d只（请求%d，成功%d，失败%d）\n\n",
		len(result.Ranked), result.Requested, result.Succeeded, result.Failed)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "## 工具评分结果（前%d名）\n\n", topN)
	b.WriteString("### 评分标准（满分100分 - 相对评分）\n\n")
	b.WriteString("- **费用合理性 (15分)**: 年度总费率越低得分越高\n")
	b.WriteString("- **规模适中性 (15分)**: 规模越接近理想区间得分越高\n")
	b.WriteString("- **短期业绩 (20分)**: 今年以来收益率越高得分越高\n")
	b.WriteString("- **长期业绩 (25分)**: 5年收益率越高得分越高（无5年数据得默认12分）\n")
	b.WriteString("- **跑赢基准 (10分)**: 超额收益越大得分越高\n")
	b.WriteString("- **稳定性 (15分)**: 成立年限越长得分越高\n\n")

	b.WriteString("### 排名表格\n\n")
	b.WriteString("| 排名 | 代码 | 名称 | 类型 | 总评分 | 费用合理性(15分) | 规模适中性(15分) | 近一年涨幅(20分) | 近五年涨幅(25分) | 超额收益(10分) | 成立时间(15分) | 晨星比较基准 |\n")
	b.WriteString("|------|------|------|------|--------|------------------|------------------|------------------|------------------|----------------|----------------|--------------|\n")

	rows := result.Ranked
	if len(rows) > topN {
		rows = rows[:topN]
	}
	for i := range rows {
		writeRow(&b, &rows[i], result.GeneratedAt)
	}

	if len(result.Failures) > 0 {
		b.WriteString("\n## 获取失败\n\n")
		b.WriteString("| 代码 | 原因 | 错误 |\n")
		b.WriteString("|------|------|------|\n")
		for _, fail := range result.Failures {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", fail.Code, fail.Kind, fail.Err)
		}
	}

	if result.Advisory != "" {
		b.WriteString("\n---\n\n## AI评分结果\n\n")
		b.WriteString(result.Advisory)
		b.WriteString("\n")
	}

	return b.String()
}

func writeRow(b *strings.Builder, sf *models.ScoredFund, now time.Time) {
	f := &sf.Fund

	explicit := f.Fees.Management + f.Fees.Custody + f.Fees.Subscription + f.Fees.SalesService
	implicit := f.Fees.Transaction + f.Fees.Other
	feeCell := fmt.Sprintf("%.1f / %.2f%% (显性%.2f%%+隐性%.2f%%)",
		sf.Factors.Fee, f.Fees.TotalAnnual*100, explicit*100, implicit*100)

	benchmark := f.BenchmarkName
	if benchmark == "" {
		benchmark = "N/A"
	}

	fmt.Fprintf(b, "| %d | %s | %s | %s | %.1f | %s | %s | %s | %s | %s | %s | %s |\n",
		sf.Rank, f.Code, f.Name, f.Category, sf.Composite,
		feeCell,
		fmt.Sprintf("%.1f / %.2f亿", sf.Factors.Scale, f.Scale),
		scoreValueCell(sf.Factors.ShortTerm, f.YTD),
		scoreValueCell(sf.Factors.LongTerm, f.FiveYear),
		excessCell(sf.Factors.Excess, f),
		stabilityCell(sf.Factors.Stability, f, now),
		benchmark,
	)
}

func scoreValueCell(score float64, v *float64) string {
	if v == nil {
		return fmt.Sprintf("%.1f / N/A", score)
	}
	return fmt.Sprintf("%.1f / %.2f%%", score, *v)
}

func excessCell(score float64, f *models.Fund) string {
	switch {
	case f.BeatsBenchmark != nil && f.ExcessReturn != nil:
		return fmt.Sprintf("%.1f / %s (%+.2f%%)", score, beatLabel(*f.BeatsBenchmark), *f.ExcessReturn)
	case f.BeatsBenchmark != nil:
		return fmt.Sprintf("%.1f / %s", score, beatLabel(*f.BeatsBenchmark))
	default:
		return fmt.Sprintf("%.1f / N/A", score)
	}
}

func beatLabel(beats bool) string {
	if beats {
		return "跑赢"
	}
	return "未跑赢"
}

func stabilityCell(score float64, f *models.Fund, now time.Time) string {
	if f.EstablishedOn == nil {
		return fmt.Sprintf("%.1f / N/A", score)
	}
	years, _ := f.AgeYears(now)
	return fmt.Sprintf("%.1f / %.1f年 (%s)", score, years, f.EstablishedOn.Format("2006-01-02"))
}
