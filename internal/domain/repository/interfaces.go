package repository

import (
	"context"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

// FundProvider fetches one fund's normalized snapshot from the
// upstream data provider.
type FundProvider interface {
	FetchFund(ctx context.Context, code, nameHint string) (*models.Fund, error)
}

// SnapshotStore archives raw cohort snapshots and fetch failures for
// later analysis. Scores are intentionally not archived.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	SaveSnapshots(ctx context.Context, sector string, at time.Time, funds []models.Fund) error
	SaveFailures(ctx context.Context, sector string, at time.Time, failures []models.FetchFailure) error
	Health(ctx context.Context) error // ping
	Close() error
}

// ResultPublisher emits finished ranking runs to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.RankResult) error
	Close() error
}

type Metrics interface {
	RecordProviderRequest(endpoint, status string)
	RecordFetchFailure(kind string)
	RecordCacheResult(outcome string)
	RecordCohortSize(sector string, n int)
	RecordLatency(op string, seconds float64)
}
