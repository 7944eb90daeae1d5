package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	domsvc "github.com/MTxiong-wang/fundinsight-ai/internal/domain/service"
	"github.com/MTxiong-wang/fundinsight-ai/internal/services/scoring"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// DefaultSector labels runs started from an explicit code list.
const DefaultSector = "自选基金"

// RankFundsUseCase drives one full ranking run: discover codes, fetch the
// cohort, score it against itself, rank, then hand the result to the
// optional sinks. Only discovery failures abort a run; the advisor, the
// archive and the publisher degrade to log entries.
type RankFundsUseCase struct {
	source    domsvc.CodeSource
	fetch     *FetchFundsUseCase
	advisor   domsvc.Advisor        // nil when not configured
	archive   domrepo.SnapshotStore // nil when disabled
	publisher domrepo.ResultPublisher
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

func NewRankFundsUseCase(
	source domsvc.CodeSource,
	fetch *FetchFundsUseCase,
	advisor domsvc.Advisor,
	archive domrepo.SnapshotStore,
	publisher domrepo.ResultPublisher,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
) *RankFundsUseCase {
	return &RankFundsUseCase{
		source:    source,
		fetch:     fetch,
		advisor:   advisor,
		archive:   archive,
		publisher: publisher,
		metrics:   metrics,
		logger:    lgr,
	}
}

// RankParams selects what to rank: a sector to discover, or an explicit
// code list that skips discovery.
type RankParams struct {
	Sector string
	Codes  []string
}

// Run executes the pipeline and returns the ranked result. The moment the
// cohort finished materializing is captured once and used for scoring,
// the result timestamp and the archive rows.
func (uc *RankFundsUseCase) Run(ctx context.Context, p RankParams) (*models.RankResult, error) {
	if p.Sector == "" && len(p.Codes) == 0 {
		return nil, fmt.Errorf("sector or codes required")
	}
	sector := p.Sector
	if sector == "" {
		sector = DefaultSector
	}

	started := time.Now()

	codes := p.Codes
	if len(codes) == 0 {
		if uc.source == nil {
			return nil, fmt.Errorf("no code source configured")
		}
		discovered, err := uc.source.DiscoverCodes(ctx, p.Sector)
		if err != nil {
			return nil, fmt.Errorf("discover %s funds: %w", p.Sector, err)
		}
		codes = discovered
	}

	var names map[string]string
	if uc.source != nil {
		names = uc.source.NameHints()
	}

	funds, failures := uc.fetch.FetchAll(ctx, codes, names)
	uc.metrics.RecordCohortSize(sector, len(funds))

	now := time.Now()
	ranked := scoring.Rank(scoring.ScoreCohortAt(funds, now))

	result := &models.RankResult{
		Sector:      sector,
		GeneratedAt: now,
		Ranked:      ranked,
		Failures:    failures,
		Requested:   len(dedupeCodes(codes)),
		Succeeded:   len(funds),
		Failed:      len(failures),
	}

	if uc.advisor != nil && len(funds) > 0 {
		advisory, err := uc.advisor.Assess(ctx, sector, funds)
		if err != nil {
			uc.logger.Warn("advisor assessment failed",
				applogger.String("sector", sector), applogger.Error(err))
		} else {
			result.Advisory = advisory
		}
	}

	uc.archiveRun(ctx, sector, now, funds, failures)

	if uc.publisher != nil {
		if err := uc.publisher.PublishResult(ctx, result); err != nil {
			uc.logger.Warn("result publish failed",
				applogger.String("sector", sector), applogger.Error(err))
		}
	}

	uc.metrics.RecordLatency("run", time.Since(started).Seconds())
	uc.logger.Info("ranking run finished",
		applogger.String("sector", sector),
		applogger.Int("requested", result.Requested),
		applogger.Int("succeeded", result.Succeeded),
		applogger.Int("failed", result.Failed),
		applogger.Duration("took", time.Since(started)))

	return result, nil
}

func (uc *RankFundsUseCase) archiveRun(ctx context.Context, sector string, at time.Time, funds []models.Fund, failures []models.FetchFailure) {
	if uc.archive == nil {
		return
	}
	if len(funds) > 0 {
		if err := uc.archive.SaveSnapshots(ctx, sector, at, funds); err != nil {
			uc.logger.Warn("snapshot archive failed",
				applogger.String("sector", sector), applogger.Error(err))
		}
	}
	if len(failures) > 0 {
		if err := uc.archive.SaveFailures(ctx, sector, at, failures); err != nil {
			uc.logger.Warn("failure archive failed",
				applogger.String("sector", sector), applogger.Error(err))
		}
	}
}
