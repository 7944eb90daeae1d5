package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

type fakeSource struct {
	codes  []string
	names  map[string]string
	err    error
	called bool
}

func (s *fakeSource) DiscoverCodes(ctx context.Context, sector string) ([]string, error) {
	s.called = true
	return s.codes, s.err
}

func (s *fakeSource) NameHints() map[string]string { return s.names }

type fakeAdvisor struct {
	text   string
	err    error
	sector string
	cohort int
}

func (a *fakeAdvisor) Assess(ctx context.Context, sector string, funds []models.Fund) (string, error) {
	a.sector = sector
	a.cohort = len(funds)
	return a.text, a.err
}

type fakeArchive struct {
	mu        sync.Mutex
	sector    string
	at        time.Time
	snapshots []models.Fund
	failures  []models.FetchFailure
}

func (s *fakeArchive) Init(ctx context.Context) error   { return nil }
func (s *fakeArchive) Health(ctx context.Context) error { return nil }
func (s *fakeArchive) Close() error                     { return nil }

func (s *fakeArchive) SaveSnapshots(ctx context.Context, sector string, at time.Time, funds []models.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sector, s.at = sector, at
	s.snapshots = append(s.snapshots, funds...)
	return nil
}

func (s *fakeArchive) SaveFailures(ctx context.Context, sector string, at time.Time, failures []models.FetchFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failures...)
	return nil
}

type fakePublisher struct {
	results []*models.RankResult
	err     error
}

func (p *fakePublisher) PublishResult(ctx context.Context, result *models.RankResult) error {
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, result)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func ytdFund(code string, ytd float64) *models.Fund {
	f := okFund(code)
	f.YTD = &ytd
	return f
}

func newRankUseCase(t *testing.T, source *fakeSource, provider *fakeProvider, advisor *fakeAdvisor, archive *fakeArchive, publisher *fakePublisher) *RankFundsUseCase {
	t.Helper()
	m := newStubMetrics()
	fetch := NewFetchFundsUseCase(provider, nil, m, testLogger(t), 10)

	// typed nils must not reach the interface fields, so fakes are
	// assigned only when the test supplies them
	uc := NewRankFundsUseCase(source, fetch, nil, nil, nil, m, testLogger(t))
	if advisor != nil {
		uc.advisor = advisor
	}
	if archive != nil {
		uc.archive = archive
	}
	if publisher != nil {
		uc.publisher = publisher
	}
	return uc
}

func TestRunDiscoversAndRanks(t *testing.T) {
	source := &fakeSource{
		codes: []string{"510300", "159915", "510300"},
		names: map[string]string{"510300": "沪深300ETF"},
	}
	provider := &fakeProvider{
		handler: func(ctx context.Context, code string) (*models.Fund, error) {
			if code == "510300" {
				return ytdFund(code, 12.0), nil
			}
			return ytdFund(code, -4.0), nil
		},
	}
	uc := newRankUseCase(t, source, provider, nil, nil, nil)

	result, err := uc.Run(context.Background(), RankParams{Sector: "新能源"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Sector != "新能源" {
		t.Errorf("sector = %q", result.Sector)
	}
	if result.Requested != 2 || result.Succeeded != 2 || result.Failed != 0 {
		t.Errorf("summary = %d/%d/%d", result.Requested, result.Succeeded, result.Failed)
	}
	if len(result.Ranked) != 2 {
		t.Fatalf("ranked = %d", len(result.Ranked))
	}
	if result.Ranked[0].Fund.Code != "510300" || result.Ranked[0].Rank != 1 {
		t.Errorf("top = %s rank %d", result.Ranked[0].Fund.Code, result.Ranked[0].Rank)
	}
	if result.Ranked[0].Composite <= result.Ranked[1].Composite {
		t.Errorf("ranking order broken: %v <= %v",
			result.Ranked[0].Composite, result.Ranked[1].Composite)
	}
	if result.GeneratedAt.IsZero() {
		t.Error("generated at not set")
	}
}

func TestRunRequiresSectorOrCodes(t *testing.T) {
	uc := newRankUseCase(t, &fakeSource{}, &fakeProvider{}, nil, nil, nil)
	if _, err := uc.Run(context.Background(), RankParams{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunExplicitCodesSkipDiscovery(t *testing.T) {
	source := &fakeSource{err: errors.New("must not be called")}
	uc := newRankUseCase(t, source, &fakeProvider{}, nil, nil, nil)

	result, err := uc.Run(context.Background(), RankParams{Codes: []string{"510300", "159915"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if source.called {
		t.Error("discovery ran despite explicit codes")
	}
	if result.Sector != DefaultSector {
		t.Errorf("sector = %q, want %q", result.Sector, DefaultSector)
	}
	if result.Succeeded != 2 {
		t.Errorf("succeeded = %d", result.Succeeded)
	}
}

func TestRunDiscoveryFailureAborts(t *testing.T) {
	source := &fakeSource{err: errors.New("search unavailable")}
	uc := newRankUseCase(t, source, &fakeProvider{}, nil, nil, nil)

	_, err := uc.Run(context.Background(), RankParams{Sector: "半导体"})
	if err == nil || !strings.Contains(err.Error(), "search unavailable") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunAdvisorFailureDoesNotAbort(t *testing.T) {
	advisor := &fakeAdvisor{err: errors.New("quota exceeded")}
	uc := newRankUseCase(t, &fakeSource{codes: []string{"510300"}}, &fakeProvider{}, advisor, nil, nil)

	result, err := uc.Run(context.Background(), RankParams{Sector: "医疗"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Advisory != "" {
		t.Errorf("advisory = %q, want empty", result.Advisory)
	}
}

func TestRunAttachesAdvisory(t *testing.T) {
	advisor := &fakeAdvisor{text: "前三名：510300、159915、016630"}
	source := &fakeSource{codes: []string{"510300", "159915"}}
	uc := newRankUseCase(t, source, &fakeProvider{}, advisor, nil, nil)

	result, err := uc.Run(context.Background(), RankParams{Sector: "新能源"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Advisory != advisor.text {
		t.Errorf("advisory = %q", result.Advisory)
	}
	if advisor.sector != "新能源" || advisor.cohort != 2 {
		t.Errorf("advisor saw %q/%d", advisor.sector, advisor.cohort)
	}
}

func TestRunArchivesAndPublishes(t *testing.T) {
	archive := &fakeArchive{}
	publisher := &fakePublisher{}
	provider := &fakeProvider{
		handler: func(ctx context.Context, code string) (*models.Fund, error) {
			if code == "404404" {
				return nil, errors.New("boom")
			}
			return okFund(code), nil
		},
	}
	source := &fakeSource{codes: []string{"510300", "404404"}}
	uc := newRankUseCase(t, source, provider, nil, archive, publisher)

	result, err := uc.Run(context.Background(), RankParams{Sector: "新能源"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	archive.mu.Lock()
	if len(archive.snapshots) != 1 || archive.snapshots[0].Code != "510300" {
		t.Errorf("archived snapshots = %v", archive.snapshots)
	}
	if len(archive.failures) != 1 || archive.failures[0].Code != "404404" {
		t.Errorf("archived failures = %v", archive.failures)
	}
	if !archive.at.Equal(result.GeneratedAt) {
		t.Errorf("archive moment %v != result moment %v", archive.at, result.GeneratedAt)
	}
	archive.mu.Unlock()

	if len(publisher.results) != 1 || publisher.results[0] != result {
		t.Errorf("published = %v", publisher.results)
	}
}

func TestRunEmptyCohortStillReturnsResult(t *testing.T) {
	advisor := &fakeAdvisor{text: "should not be used"}
	provider := &fakeProvider{
		handler: func(ctx context.Context, code string) (*models.Fund, error) {
			return nil, errors.New("unreachable host")
		},
	}
	source := &fakeSource{codes: []string{"510300", "159915"}}
	uc := newRankUseCase(t, source, provider, advisor, nil, nil)

	result, err := uc.Run(context.Background(), RankParams{Sector: "军工"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Succeeded != 0 || result.Failed != 2 || len(result.Ranked) != 0 {
		t.Errorf("summary = %d/%d ranked %d", result.Succeeded, result.Failed, len(result.Ranked))
	}
	if advisor.cohort != 0 {
		t.Error("advisor consulted on empty cohort")
	}
	if result.Advisory != "" {
		t.Errorf("advisory = %q", result.Advisory)
	}
}
