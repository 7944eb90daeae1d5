package discovery

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/service"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// maxPages caps one sector search regardless of what the provider claims.
const maxPages = 50

// codePattern extracts the six-digit fund code from whatever decoration
// the export carries (suffixed variants like "516160.OF" included).
var codePattern = regexp.MustCompile(`\d{6}`)

// Candidate is one fund the index provider returned for a sector search.
type Candidate struct {
	Code string
	Name string
}

type searchResponse struct {
	Code string `json:"code"`
	Data struct {
		Funds []struct {
			FundCode string `json:"fundCode"`
			FundName string `json:"fundName"`
		} `json:"funds"`
		Total int `json:"total"`
	} `json:"data"`
}

// Source discovers sector funds through the index provider's search API,
// one page per request, throttled by a token bucket so discovery stays
// polite regardless of page count. Display names gathered along the way
// are kept in memory and persisted through the NameStore.
type Source struct {
	http     *xhttp.Client
	baseURL  string
	pageSize int
	limiter  *rate.Limiter
	store    *NameStore
	logger   *logger.Logger

	mu    sync.RWMutex
	names map[string]string
}

// NewSource creates a sector fund source. Previously persisted names are
// loaded eagerly; a missing or unreadable file just starts empty.
func NewSource(baseURL string, pageSize int, rps float64, burst int, store *NameStore, lgr *logger.Logger) *Source {
	s := &Source{
		http: xhttp.NewClient(
			xhttp.WithTimeout(30*time.Second),
			xhttp.WithDefaultHeaders(map[string]string{
				"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
				"Accept":     "application/json",
			}),
		),
		baseURL:  baseURL,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		store:    store,
		logger:   lgr,
		names:    map[string]string{},
	}

	if store != nil {
		if names, err := store.Load(); err != nil {
			lgr.Warn("stored fund names unreadable", logger.Error(err))
		} else {
			s.names = names
		}
	}
	return s
}

// DiscoverCodes searches the provider for funds matching the sector
// keyword and returns their codes in provider order, deduplicated. An
// empty result is not an error. Names seen during the search are merged
// into the hint mapping and persisted.
func (s *Source) DiscoverCodes(ctx context.Context, sector string) ([]string, error) {
	if sector == "" {
		return nil, fmt.Errorf("sector required")
	}

	var codes []string
	seen := map[string]struct{}{}
	found := map[string]string{}

	for page := 1; page <= maxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("discovery throttle: %w", err)
		}

		batch, total, err := s.searchPage(ctx, sector, page)
		if err != nil {
			return nil, fmt.Errorf("search %q page %d: %w", sector, page, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, c := range batch {
			if _, ok := seen[c.Code]; ok {
				continue
			}
			seen[c.Code] = struct{}{}
			codes = append(codes, c.Code)
			found[c.Code] = c.Name
		}

		if len(batch) < s.pageSize || (total > 0 && len(codes) >= total) {
			break
		}
	}

	s.rememberNames(found)
	s.logger.Info("sector search finished",
		logger.String("sector", sector), logger.Int("funds", len(codes)))
	return codes, nil
}

// NameHints returns a copy of the known code to display-name mapping.
func (s *Source) NameHints() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hints := make(map[string]string, len(s.names))
	for code, name := range s.names {
		hints[code] = name
	}
	return hints
}

func (s *Source) searchPage(ctx context.Context, sector string, page int) ([]Candidate, int, error) {
	var resp searchResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    s.baseURL,
		QueryParams: map[string][]string{
			"searchInput": {sector},
			"pageNum":     {strconv.Itoa(page)},
			"pageSize":    {strconv.Itoa(s.pageSize)},
		},
	}, &resp)
	if err != nil {
		return nil, 0, err
	}
	if resp.Code != "200" {
		return nil, 0, fmt.Errorf("provider status %q", resp.Code)
	}

	candidates := make([]Candidate, 0, len(resp.Data.Funds))
	for _, f := range resp.Data.Funds {
		code := codePattern.FindString(f.FundCode)
		if code == "" {
			continue
		}
		name := f.FundName
		if name == "" {
			name = "基金" + code
		}
		candidates = append(candidates, Candidate{Code: code, Name: name})
	}
	return candidates, resp.Data.Total, nil
}

func (s *Source) rememberNames(found map[string]string) {
	if len(found) == 0 {
		return
	}

	s.mu.Lock()
	for code, name := range found {
		s.names[code] = name
	}
	snapshot := make(map[string]string, len(s.names))
	for code, name := range s.names {
		snapshot[code] = name
	}
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.Save(snapshot); err != nil {
		s.logger.Warn("fund names not persisted", logger.Error(err))
	}
}

var _ service.CodeSource = (*Source)(nil)
