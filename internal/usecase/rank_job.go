package usecase

import (
	"context"
	"fmt"
	"time"

	fundcache "github.com/MTxiong-wang/fundinsight-ai/internal/service/cache"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/queue"
)

// RankSectorPayload is the queued form of one async ranking request.
type RankSectorPayload struct {
	Sector string `json:"sector"`
	Top    int    `json:"top,omitempty"`
}

// RankSectorJob runs the ranking pipeline for queued sector requests and
// caches the outcome so the API can serve it without re-running.
type RankSectorJob struct {
	rank    *RankFundsUseCase
	results *fundcache.ResultCache
	timeout time.Duration
	logger  *applogger.Logger
}

// NewRankSectorJob creates the job. timeout bounds a single run; zero
// means the worker context alone decides.
func NewRankSectorJob(rank *RankFundsUseCase, results *fundcache.ResultCache, timeout time.Duration, lgr *applogger.Logger) *RankSectorJob {
	return &RankSectorJob{rank: rank, results: results, timeout: timeout, logger: lgr}
}

func (j *RankSectorJob) Name() string { return "rank-sector" }
func (j *RankSectorJob) Type() string { return "rank_sector" }

// runLockTTL bounds how long a crashed worker can block a sector.
const runLockTTL = 30 * time.Minute

func (j *RankSectorJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RankSectorPayload](payload)
	if err != nil {
		return fmt.Errorf("rank_sector payload: %w", err)
	}

	locked, err := j.results.TryLock(ctx, p.Sector, runLockTTL)
	if err == nil && !locked {
		j.logger.Info("sector run already in progress, skipping",
			applogger.String("sector", p.Sector))
		return nil
	}
	if err == nil {
		// Unlock on a fresh context: the run context may already be
		// cancelled or timed out by the time the defer fires.
		defer func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = j.results.Unlock(unlockCtx, p.Sector)
		}()
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.rank.Run(ctx, RankParams{Sector: p.Sector})
	if err != nil {
		return fmt.Errorf("rank %s: %w", p.Sector, err)
	}

	// The requester bounded the table at enqueue time; failures and the
	// run summary are kept whole.
	if p.Top > 0 && len(result.Ranked) > p.Top {
		result.Ranked = result.Ranked[:p.Top]
	}

	if err := j.results.Put(ctx, result); err != nil {
		return fmt.Errorf("store result %s: %w", p.Sector, err)
	}

	j.logger.Info("async ranking finished",
		applogger.String("sector", p.Sector),
		applogger.Int("ranked", len(result.Ranked)),
		applogger.Int("failed", result.Failed),
	)
	return nil
}

var _ queue.Job = (*RankSectorJob)(nil)
