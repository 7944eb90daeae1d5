package morningstar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/ratelimit"
)

func okBody(data string) string {
	return `{"_meta":{"response_status":"200011"},"data":` + data + `}`
}

// fakeProvider serves the three sub-resource endpoints from a map.
func fakeProvider(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[path.Base(r.URL.Path)]
		if !ok {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}
}

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	gate := ratelimit.NewGate(3, 0)
	client := NewClient(baseURL, 5*time.Second, 0, gate, testLogger(t), stubMetrics{})
	return NewFetcher(client, testLogger(t))
}

func TestFetchFundAggregatesSubResources(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		endpointCommon: respond(okBody(`{"name":"易方达创业板ETF","inceptionDate":"2011-09-20","fundSize":1234000000}`)),
		endpointPerformance: respond(okBody(`{"benchmarkName":"创业板指数",
			"dayEnd":{"returns":{"YTD":15.5,"Y5":60.0},"benchmarkReturns":{"YTD":12.0}}}`)),
		endpointFees: respond(okBody(`{"fees":{"managementFee":0.5,"custodianFee":0.1}}`)),
	})
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	fund, err := f.FetchFund(context.Background(), "159915", "")
	if err != nil {
		t.Fatalf("FetchFund: %v", err)
	}

	if fund.Name != "易方达创业板ETF" {
		t.Errorf("name = %q", fund.Name)
	}
	if fund.Category != models.CategoryExchange {
		t.Errorf("category = %s", fund.Category)
	}
	approx(t, "scale", fund.Scale, 12.34)
	approx(t, "management", fund.Fees.Management, 0.005)
	if fund.YTD == nil || *fund.YTD != 15.5 {
		t.Errorf("YTD = %v", fund.YTD)
	}
	if fund.ExcessReturn == nil || *fund.ExcessReturn != 3.5 {
		t.Errorf("excess = %v, want 3.5", fund.ExcessReturn)
	}
	if fund.BeatsBenchmark == nil || !*fund.BeatsBenchmark {
		t.Errorf("beats = %v", fund.BeatsBenchmark)
	}
}

func TestFetchFundAttributesMandatory(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		endpointCommon:      func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
		endpointPerformance: respond(okBody(`{}`)),
		endpointFees:        respond(okBody(`{}`)),
	})
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	fund, err := f.FetchFund(context.Background(), "999999", "")
	if err == nil {
		t.Fatal("expected error when attributes are missing")
	}
	if fund != nil {
		t.Errorf("fund = %+v, want nil", fund)
	}
	if Classify(err) != models.FailureNotFound {
		t.Errorf("kind = %v, want not_found", Classify(err))
	}
}

func TestFetchFundOptionalSubResourcesDegrade(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		endpointCommon: respond(okBody(`{"name":"某基金","fundSize":100000000}`)),
		endpointPerformance: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		endpointFees: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	})
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	fund, err := f.FetchFund(context.Background(), "016630", "")
	if err != nil {
		t.Fatalf("FetchFund should tolerate optional failures: %v", err)
	}

	if fund.YTD != nil || fund.FiveYear != nil {
		t.Error("returns should stay absent when performance fails")
	}
	approx(t, "totalAnnual", fund.Fees.TotalAnnual, 0.002)
	approx(t, "scale", fund.Scale, 1.0)
}

func TestFetchFundNameHintWins(t *testing.T) {
	srv := fakeProvider(t, map[string]http.HandlerFunc{
		endpointCommon:      respond(okBody(`{"name":"provider name"}`)),
		endpointPerformance: respond(okBody(`{}`)),
		endpointFees:        respond(okBody(`{}`)),
	})
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	fund, err := f.FetchFund(context.Background(), "016630", "中证名称")
	if err != nil {
		t.Fatalf("FetchFund: %v", err)
	}
	if fund.Name != "中证名称" {
		t.Errorf("name = %q, want hint", fund.Name)
	}
}
