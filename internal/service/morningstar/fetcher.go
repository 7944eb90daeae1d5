package morningstar

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// Fetcher assembles one fund snapshot from the provider's three
// sub-resources. Attributes are mandatory; performance and fees may be
// missing and the normalizer substitutes defaults for that sub-resource
// only, so new or illiquid funds degrade instead of disappearing.
type Fetcher struct {
	client *Client
	logger *logger.Logger
}

// NewFetcher creates a fund fetcher on top of the rate-limited client.
func NewFetcher(client *Client, lgr *logger.Logger) *Fetcher {
	return &Fetcher{client: client, logger: lgr}
}

// FetchFund fetches the three sub-resources concurrently, waits for all
// of them, and returns the normalized fund. nameHint, when not empty,
// takes precedence over the provider's display name.
func (f *Fetcher) FetchFund(ctx context.Context, code, nameHint string) (*models.Fund, error) {
	type item struct {
		name string
		data json.RawMessage
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		data, err := f.client.fetchResource(ctx, code, endpointCommon)
		ch <- item{endpointCommon, data, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		data, err := f.client.fetchResource(ctx, code, endpointPerformance)
		ch <- item{endpointPerformance, data, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		data, err := f.client.fetchResource(ctx, code, endpointFees)
		ch <- item{endpointFees, data, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	raw := rawFund{code: code}
	var commonErr error
	for it := range ch {
		switch it.name {
		case endpointCommon:
			if it.err != nil {
				commonErr = it.err
				continue
			}
			var p commonPayload
			if err := json.Unmarshal(it.data, &p); err != nil {
				commonErr = &FetchError{Code: code, Endpoint: it.name, Kind: models.FailureMalformed, Err: err}
				continue
			}
			raw.common = &p
		case endpointPerformance:
			if it.err != nil {
				f.logger.Debug("performance unavailable",
					logger.String("code", code), logger.Error(it.err))
				continue
			}
			var p performancePayload
			if err := json.Unmarshal(it.data, &p); err != nil {
				f.logger.Debug("performance payload unreadable",
					logger.String("code", code), logger.Error(err))
				continue
			}
			raw.performance = &p
		case endpointFees:
			if it.err != nil {
				f.logger.Debug("fees unavailable",
					logger.String("code", code), logger.Error(it.err))
				continue
			}
			var p feesPayload
			if err := json.Unmarshal(it.data, &p); err != nil {
				f.logger.Debug("fees payload unreadable",
					logger.String("code", code), logger.Error(err))
				continue
			}
			raw.fees = &p
		}
	}

	if commonErr != nil {
		return nil, commonErr
	}

	fund := normalizeFund(raw, nameHint)
	return &fund, nil
}

var _ repository.FundProvider = (*Fetcher)(nil)
