package usecase

import (
	"context"
	"sync"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	fundcache "github.com/MTxiong-wang/fundinsight-ai/internal/service/cache"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/morningstar"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// FetchFundsUseCase materializes a cohort of fund snapshots. Codes are
// deduplicated, looked up in the snapshot cache, and the remainder fetched
// from the provider in chunks sized at the transport's concurrency cap, so
// a run never holds more than one chunk of permits at a time.
type FetchFundsUseCase struct {
	provider domrepo.FundProvider
	cache    *fundcache.FundCache // nil disables snapshot caching
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	chunk    int
}

// NewFetchFundsUseCase creates the fetch orchestrator. chunk is clamped to
// at least 1 and should match the transport permit cap.
func NewFetchFundsUseCase(provider domrepo.FundProvider, cache *fundcache.FundCache, metrics domrepo.Metrics, lgr *applogger.Logger, chunk int) *FetchFundsUseCase {
	if chunk < 1 {
		chunk = 1
	}
	return &FetchFundsUseCase{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
		logger:   lgr,
		chunk:    chunk,
	}
}

// FetchAll fetches every distinct code and returns the snapshots that
// succeeded plus one classified failure per code that did not. names maps
// codes to preferred display names and may be nil. Failures never abort
// the run, and an empty input yields empty output. Result order follows
// completion, not dispatch; callers needing a stable order rank the
// cohort afterwards. On cancellation the current chunk is abandoned
// best-effort, later chunks are never dispatched, and results from
// settled chunks are still returned.
func (uc *FetchFundsUseCase) FetchAll(ctx context.Context, codes []string, names map[string]string) ([]models.Fund, []models.FetchFailure) {
	deduped := dedupeCodes(codes)
	if len(deduped) == 0 {
		return nil, nil
	}

	funds := make([]models.Fund, 0, len(deduped))
	var failures []models.FetchFailure

	pending := deduped
	if uc.cache != nil {
		cached, rest := uc.lookupCached(ctx, deduped)
		funds = append(funds, cached...)
		pending = rest
	}

	uc.logger.Info("fetching cohort",
		applogger.Int("requested", len(deduped)),
		applogger.Int("cached", len(funds)),
		applogger.Int("pending", len(pending)))

	for start := 0; start < len(pending); start += uc.chunk {
		if ctx.Err() != nil {
			break
		}
		end := start + uc.chunk
		if end > len(pending) {
			end = len(pending)
		}

		chunkFunds, chunkFailures := uc.fetchChunk(ctx, pending[start:end], names)
		funds = append(funds, chunkFunds...)
		failures = append(failures, chunkFailures...)

		if uc.cache != nil && len(chunkFunds) > 0 {
			if err := uc.cache.PutMany(ctx, chunkFunds); err != nil {
				uc.logger.Warn("snapshot cache write failed", applogger.Error(err))
			}
		}
	}

	return funds, failures
}

// fetchChunk dispatches one chunk of concurrent fetches and collects the
// settled results. Only this goroutine touches the result slices.
func (uc *FetchFundsUseCase) fetchChunk(ctx context.Context, codes []string, names map[string]string) ([]models.Fund, []models.FetchFailure) {
	type item struct {
		code string
		fund *models.Fund
		err  error
	}
	ch := make(chan item, len(codes))
	var wg sync.WaitGroup

	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			fund, err := uc.provider.FetchFund(ctx, code, names[code])
			ch <- item{code, fund, err}
		}(code)
	}

	go func() { wg.Wait(); close(ch) }()

	funds := make([]models.Fund, 0, len(codes))
	var failures []models.FetchFailure
	for it := range ch {
		if it.err != nil {
			kind := morningstar.Classify(it.err)
			uc.metrics.RecordFetchFailure(string(kind))
			uc.logger.Warn("fund fetch failed",
				applogger.String("code", it.code),
				applogger.String("kind", string(kind)),
				applogger.Error(it.err))
			failures = append(failures, models.FetchFailure{Code: it.code, Kind: kind, Err: it.err.Error()})
			continue
		}
		funds = append(funds, *it.fund)
	}
	return funds, failures
}

// lookupCached splits codes into cache hits and the codes still to fetch,
// keeping the miss order stable.
func (uc *FetchFundsUseCase) lookupCached(ctx context.Context, codes []string) ([]models.Fund, []string) {
	hits, err := uc.cache.GetMany(ctx, codes)
	if err != nil {
		uc.logger.Warn("snapshot cache read failed", applogger.Error(err))
		return nil, codes
	}

	funds := make([]models.Fund, 0, len(hits))
	rest := make([]string, 0, len(codes)-len(hits))
	for _, code := range codes {
		if f, ok := hits[code]; ok {
			uc.metrics.RecordCacheResult("hit")
			funds = append(funds, f)
			continue
		}
		uc.metrics.RecordCacheResult("miss")
		rest = append(rest, code)
	}
	return funds, rest
}

// dedupeCodes drops blank and repeated codes, first occurrence winning,
// preserving order.
func dedupeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
