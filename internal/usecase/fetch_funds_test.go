package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	fundcache "github.com/MTxiong-wang/fundinsight-ai/internal/service/cache"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/morningstar"
	pkgcache "github.com/MTxiong-wang/fundinsight-ai/pkg/cache"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

type stubMetrics struct {
	mu          sync.Mutex
	failures    map[string]int
	cacheLookup map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{failures: map[string]int{}, cacheLookup: map[string]int{}}
}

func (m *stubMetrics) RecordProviderRequest(endpoint, status string) {}

func (m *stubMetrics) RecordFetchFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *stubMetrics) RecordCacheResult(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheLookup[outcome]++
}

func (m *stubMetrics) RecordCohortSize(sector string, n int) {}

func (m *stubMetrics) RecordLatency(op string, seconds float64) {}

type fakeProvider struct {
	mu          sync.Mutex
	calls       []string
	hints       map[string]string
	inFlight    int
	maxInFlight int
	delay       time.Duration
	handler     func(ctx context.Context, code string) (*models.Fund, error)
}

func (p *fakeProvider) FetchFund(ctx context.Context, code, nameHint string) (*models.Fund, error) {
	p.mu.Lock()
	p.calls = append(p.calls, code)
	if p.hints == nil {
		p.hints = map[string]string{}
	}
	p.hints[code] = nameHint
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()

	if p.handler != nil {
		return p.handler(ctx, code)
	}
	return okFund(code), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func okFund(code string) *models.Fund {
	return &models.Fund{
		Code:     code,
		Name:     "基金" + code,
		Category: models.CategoryForCode(code),
		Fees:     models.FeeSchedule{TotalAnnual: 0.002},
		Scale:    10,
	}
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func newFetchUseCase(t *testing.T, p *fakeProvider, c *fundcache.FundCache, chunk int) (*FetchFundsUseCase, *stubMetrics) {
	t.Helper()
	m := newStubMetrics()
	return NewFetchFundsUseCase(p, c, m, testLogger(t), chunk), m
}

func TestFetchAllDedupesFirstWins(t *testing.T) {
	p := &fakeProvider{}
	uc, _ := newFetchUseCase(t, p, nil, 10)

	funds, failures := uc.FetchAll(context.Background(),
		[]string{"510300", "159915", "510300", "016630", "159915"}, nil)

	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(funds) != 3 {
		t.Fatalf("expected 3 funds, got %d", len(funds))
	}
	if p.callCount() != 3 {
		t.Fatalf("expected 3 provider calls, got %d", p.callCount())
	}
}

func TestFetchAllCollectsClassifiedFailures(t *testing.T) {
	p := &fakeProvider{
		handler: func(ctx context.Context, code string) (*models.Fund, error) {
			switch code {
			case "000404":
				return nil, &morningstar.FetchError{
					Code:     code,
					Endpoint: "common-data",
					Kind:     models.FailureNotFound,
					Err:      errors.New("status 404"),
				}
			case "000500":
				return nil, errors.New("connection reset")
			default:
				return okFund(code), nil
			}
		},
	}
	uc, m := newFetchUseCase(t, p, nil, 10)

	funds, failures := uc.FetchAll(context.Background(), []string{"510300", "000404", "000500"}, nil)

	if len(funds) != 1 || funds[0].Code != "510300" {
		t.Fatalf("expected only 510300 to succeed, got %v", funds)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}

	kinds := map[string]models.FailureKind{}
	for _, f := range failures {
		kinds[f.Code] = f.Kind
	}
	if kinds["000404"] != models.FailureNotFound {
		t.Fatalf("000404 kind = %s", kinds["000404"])
	}
	if kinds["000500"] != models.FailureTransient {
		t.Fatalf("000500 kind = %s", kinds["000500"])
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures["not_found"] != 1 || m.failures["transient"] != 1 {
		t.Fatalf("failure metrics = %v", m.failures)
	}
}

func TestFetchAllChunksBoundConcurrency(t *testing.T) {
	p := &fakeProvider{delay: 50 * time.Millisecond}
	uc, _ := newFetchUseCase(t, p, nil, 2)

	codes := []string{"510300", "510500", "159915", "016630", "001594"}
	funds, failures := uc.FetchAll(context.Background(), codes, nil)

	if len(funds) != 5 || len(failures) != 0 {
		t.Fatalf("expected 5 funds, got %d funds %d failures", len(funds), len(failures))
	}
	if p.maxInFlight > 2 {
		t.Fatalf("concurrency exceeded chunk size: %d", p.maxInFlight)
	}
	if p.maxInFlight != 2 {
		t.Fatalf("chunk was not dispatched concurrently: max in flight %d", p.maxInFlight)
	}
}

func TestFetchAllEmptyInput(t *testing.T) {
	p := &fakeProvider{}
	uc, _ := newFetchUseCase(t, p, nil, 10)

	funds, failures := uc.FetchAll(context.Background(), nil, nil)
	if funds != nil || failures != nil {
		t.Fatalf("expected empty result, got %v / %v", funds, failures)
	}
	if p.callCount() != 0 {
		t.Fatalf("provider called on empty input")
	}
}

func TestFetchAllCancellationKeepsSettledChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeProvider{
		handler: func(ctx context.Context, code string) (*models.Fund, error) {
			if code == "510300" {
				cancel()
			}
			return okFund(code), nil
		},
	}
	uc, _ := newFetchUseCase(t, p, nil, 1)

	funds, failures := uc.FetchAll(ctx, []string{"510300", "159915", "016630"}, nil)

	if len(funds) != 1 || funds[0].Code != "510300" {
		t.Fatalf("expected the settled chunk only, got %v", funds)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if p.callCount() != 1 {
		t.Fatalf("later chunks were dispatched: %d calls", p.callCount())
	}
}

func TestFetchAllUsesSnapshotCache(t *testing.T) {
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	snapshots := fundcache.NewFundCache(mem, time.Hour)

	ctx := context.Background()
	if err := snapshots.Put(ctx, *okFund("510300")); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	p := &fakeProvider{}
	uc, m := newFetchUseCase(t, p, snapshots, 10)

	funds, failures := uc.FetchAll(ctx, []string{"510300", "159915"}, nil)

	if len(funds) != 2 || len(failures) != 0 {
		t.Fatalf("expected 2 funds, got %d funds %d failures", len(funds), len(failures))
	}
	if p.callCount() != 1 || p.calls[0] != "159915" {
		t.Fatalf("cached code was fetched: %v", p.calls)
	}

	// the fetched fund lands in the cache for the next run
	if _, ok, err := snapshots.Get(ctx, "159915"); err != nil || !ok {
		t.Fatalf("fetched fund not cached: ok=%v err=%v", ok, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cacheLookup["hit"] != 1 || m.cacheLookup["miss"] != 1 {
		t.Fatalf("cache metrics = %v", m.cacheLookup)
	}
}

func TestFetchAllForwardsNameHints(t *testing.T) {
	p := &fakeProvider{}
	uc, _ := newFetchUseCase(t, p, nil, 10)

	names := map[string]string{"510300": "华泰柏瑞沪深300ETF"}
	uc.FetchAll(context.Background(), []string{"510300", "159915"}, names)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hints["510300"] != "华泰柏瑞沪深300ETF" {
		t.Fatalf("hint not forwarded: %q", p.hints["510300"])
	}
	if p.hints["159915"] != "" {
		t.Fatalf("unexpected hint for 159915: %q", p.hints["159915"])
	}
}

func TestDedupeCodes(t *testing.T) {
	got := dedupeCodes([]string{"b", "", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %s, want %s", i, got[i], want[i])
		}
	}
}
