package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	pkgch "github.com/MTxiong-wang/fundinsight-ai/pkg/clickhouse"
)

// insertChunk bounds VALUES rows per INSERT to keep statements small.
const insertChunk = 500

// FundArchive stores raw cohort snapshots and fetch failures in
// ClickHouse, one row per fund per run. Scores are recomputable from
// snapshots and are not archived.
type FundArchive struct {
	client   *pkgch.Client
	db       *sql.DB
	database string
}

// NewFundArchive creates ClickHouse-backed archive storage.
func NewFundArchive(client *pkgch.Client, database string) *FundArchive {
	return &FundArchive{client: client, db: client.DB(), database: database}
}

// Init ensures the archive tables exist. Idempotent.
func (s *FundArchive) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.fund_snapshots (
			run_at            DateTime,
			sector            String,
			code              String,
			name              String,
			category          String,
			management_fee    Float64,
			custody_fee       Float64,
			subscription_fee  Float64,
			redemption_fee    Float64,
			sales_service_fee Float64,
			transaction_cost  Float64,
			other_fees        Float64,
			total_annual_fee  Float64,
			scale             Float64,
			ytd               Nullable(Float64),
			three_year        Nullable(Float64),
			five_year         Nullable(Float64),
			established_on    Nullable(Date),
			benchmark         String,
			excess_return     Nullable(Float64),
			beats_benchmark   Nullable(UInt8)
		) ENGINE=MergeTree ORDER BY (sector, run_at, code)`, s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.fetch_failures (
			run_at DateTime,
			sector String,
			code   String,
			kind   String,
			error  String
		) ENGINE=MergeTree ORDER BY (sector, run_at, code)`, s.database),
	})
}

// SaveSnapshots archives one run's fetched cohort under a shared run_at.
func (s *FundArchive) SaveSnapshots(ctx context.Context, sector string, at time.Time, funds []models.Fund) error {
	if len(funds) == 0 {
		return nil
	}

	const cols = "(run_at, sector, code, name, category, management_fee, custody_fee, subscription_fee, redemption_fee, sales_service_fee, transaction_cost, other_fees, total_annual_fee, scale, ytd, three_year, five_year, established_on, benchmark, excess_return, beats_benchmark)"

	for start := 0; start < len(funds); start += insertChunk {
		end := start + insertChunk
		if end > len(funds) {
			end = len(funds)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*21)
		for i := start; i < end; i++ {
			f := &funds[i]
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				at,
				sector,
				f.Code,
				f.Name,
				string(f.Category),
				f.Fees.Management,
				f.Fees.Custody,
				f.Fees.Subscription,
				f.Fees.Redemption,
				f.Fees.SalesService,
				f.Fees.Transaction,
				f.Fees.Other,
				f.Fees.TotalAnnual,
				f.Scale,
				f.YTD,
				f.ThreeYear,
				f.FiveYear,
				f.EstablishedOn,
				f.BenchmarkName,
				f.ExcessReturn,
				nullableBool(f.BeatsBenchmark),
			)
		}

		q := fmt.Sprintf("INSERT INTO %s.fund_snapshots %s VALUES %s",
			s.database, cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert snapshots: %w", err)
		}
	}
	return nil
}

// SaveFailures archives the codes that dropped out of a run.
func (s *FundArchive) SaveFailures(ctx context.Context, sector string, at time.Time, failures []models.FetchFailure) error {
	if len(failures) == 0 {
		return nil
	}

	values := make([]string, 0, len(failures))
	args := make([]interface{}, 0, len(failures)*5)
	for _, f := range failures {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, at, sector, f.Code, string(f.Kind), f.Err)
	}

	q := fmt.Sprintf("INSERT INTO %s.fetch_failures (run_at, sector, code, kind, error) VALUES %s",
		s.database, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert failures: %w", err)
	}
	return nil
}

func (s *FundArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *FundArchive) Close() error {
	return nil // connection pool is owned by pkg/clickhouse
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return uint8(1)
	}
	return uint8(0)
}

var _ domrepo.SnapshotStore = (*FundArchive)(nil)
