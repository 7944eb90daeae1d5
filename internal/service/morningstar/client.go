package morningstar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/ratelimit"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// Client is the rate-limited transport for the provider's per-fund
// sub-resource API. Every request runs under the shared gate: at most
// the gate's cap in flight, and a fixed cool-down after each request
// before its permit frees up, success or failure alike.
type Client struct {
	baseURL string
	http    *xhttp.Client
	gate    *ratelimit.Gate
	backoff time.Duration
	logger  *logger.Logger
	metrics repository.Metrics
}

// NewClient creates a provider transport. backoff is the extra in-permit
// wait after the provider signals backpressure.
func NewClient(baseURL string, timeout, backoff time.Duration, gate *ratelimit.Gate, lgr *logger.Logger, m repository.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithDefaultHeaders(map[string]string{
				"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
				"Accept":     "application/json",
			}),
		),
		gate:    gate,
		backoff: backoff,
		logger:  lgr,
		metrics: m,
	}
}

// fetchResource performs one rate-limited GET against a fund's
// sub-resource endpoint and unwraps the provider envelope.
func (c *Client) fetchResource(ctx context.Context, code, endpoint string) (json.RawMessage, error) {
	var data json.RawMessage
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.get(ctx, code, endpoint)
		return err
	})
	return data, err
}

func (c *Client) get(ctx context.Context, code, endpoint string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/funds/%s/%s", c.baseURL, code, endpoint)

	var env envelope
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
	}, &env)
	if err != nil {
		return nil, c.classify(ctx, code, endpoint, err)
	}

	if env.Meta.ResponseStatus != statusOK {
		c.metrics.RecordProviderRequest(endpoint, "bad_envelope")
		return nil, &FetchError{
			Code:     code,
			Endpoint: endpoint,
			Kind:     models.FailureMalformed,
			Err:      fmt.Errorf("response status %q", env.Meta.ResponseStatus),
		}
	}

	c.metrics.RecordProviderRequest(endpoint, "ok")
	return env.Data, nil
}

// classify maps a transport error onto the failure taxonomy. A 429
// additionally waits out the backoff while still holding the permit,
// so the delay precedes the next caller's attempt rather than retrying
// this one.
func (c *Client) classify(ctx context.Context, code, endpoint string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		c.metrics.RecordProviderRequest(endpoint, strconv.Itoa(se.StatusCode))
		switch se.StatusCode {
		case http.StatusNotFound:
			return &FetchError{Code: code, Endpoint: endpoint, Kind: models.FailureNotFound, Err: err}
		case http.StatusTooManyRequests:
			c.logger.Warn("provider backpressure, delaying next request",
				logger.String("code", code),
				logger.String("endpoint", endpoint))
			c.wait(ctx, c.backoff)
			return &FetchError{Code: code, Endpoint: endpoint, Kind: models.FailureRateLimited, Err: err}
		default:
			return &FetchError{Code: code, Endpoint: endpoint, Kind: models.FailureTransient, Err: err}
		}
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syn) || errors.As(err, &typ) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.metrics.RecordProviderRequest(endpoint, "malformed")
		return &FetchError{Code: code, Endpoint: endpoint, Kind: models.FailureMalformed, Err: err}
	}

	c.metrics.RecordProviderRequest(endpoint, "error")
	return &FetchError{Code: code, Endpoint: endpoint, Kind: models.FailureTransient, Err: err}
}

func (c *Client) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
