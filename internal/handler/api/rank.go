package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	fundcache "github.com/MTxiong-wang/fundinsight-ai/internal/service/cache"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/metrics"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/ratelimit"
	"github.com/MTxiong-wang/fundinsight-ai/internal/usecase"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/queue"
)

// AsyncAccepted acknowledges an enqueued ranking run. The result is
// fetched later via GET /api/v1/rank/result?sector=.
type AsyncAccepted struct {
	JobID  string `json:"job_id"`
	Sector string `json:"sector"`
	Status string `json:"status"`
}

// RankHandler serves ranking runs over HTTP: a synchronous run endpoint,
// an async enqueue endpoint backed by the job queue, and a cached-result
// lookup for finished async runs.
type RankHandler struct {
	rank    *usecase.RankFundsUseCase
	results *fundcache.ResultCache // nil when no cache backend is configured
	queue   queue.QueueService     // nil when the queue is disabled
	rl      *ratelimit.Limiter
	logger  *applogger.Logger
}

func NewRankHandler(rank *usecase.RankFundsUseCase, results *fundcache.ResultCache, lgr *applogger.Logger) *RankHandler {
	metrics.Register()
	return &RankHandler{rank: rank, results: results, rl: ratelimit.New(), logger: lgr}
}

// SetQueue enables the async endpoint.
func (h *RankHandler) SetQueue(q queue.QueueService) { h.queue = q }

func (h *RankHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/rank", h.Rank)
	g.POST("/rank/async", h.RankAsync)
	g.GET("/rank/result", h.Result)
	g.GET("/health", h.Health)
}

// Rank runs the full pipeline synchronously. Slow by nature: one run
// fetches the whole cohort from the upstream provider.
func (h *RankHandler) Rank(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("rank").Observe(time.Since(start).Seconds()) }()

	req := &models.RankRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":rank", 2, 0.2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	result, err := h.rank.Run(c.Request().Context(), usecase.RankParams{
		Sector: req.Sector,
		Codes:  req.Codes,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("rank").Inc()
		h.logger.Error("rank run failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("rank run failed").WithError(err))
	}

	// Cache the full result before bounding the response so the async
	// lookup endpoint serves complete runs.
	if h.results != nil {
		if err := h.results.Put(c.Request().Context(), result); err != nil {
			h.logger.Warn("rank result not cached", applogger.Error(err))
		}
	}
	if req.Top > 0 && len(result.Ranked) > req.Top {
		result.Ranked = result.Ranked[:req.Top]
	}
	return xhttp.SuccessResponse(c, result)
}

// RankAsync enqueues a sector run and returns immediately.
func (h *RankHandler) RankAsync(c echo.Context) error {
	req := &models.RankRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Sector == "" {
		return xhttp.BadRequestResponse(c, "sector required for async ranking")
	}
	if h.queue == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "async ranking disabled")
	}
	if !h.rl.Allow(c.RealIP()+":rank_async", 5, 1) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	payload := usecase.RankSectorPayload{Sector: req.Sector, Top: req.Top}
	if err := h.queue.PublishMessage(c.Request().Context(), "rank_sector", payload); err != nil {
		metrics.APIErrors.WithLabelValues("rank_async").Inc()
		h.logger.Error("enqueue rank job failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("enqueue failed").WithError(err))
	}

	return xhttp.DataResponse(c, http.StatusAccepted, AsyncAccepted{
		JobID:  fmt.Sprintf("%d", time.Now().UnixNano()),
		Sector: req.Sector,
		Status: "queued",
	})
}

// Result returns the latest cached run for a sector, if any.
func (h *RankHandler) Result(c echo.Context) error {
	req := &models.RankResultRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.results == nil {
		return xhttp.NotFoundResponse(c, "no result cache configured")
	}

	result, ok, err := h.results.Get(c.Request().Context(), req.Sector)
	if err != nil {
		metrics.APIErrors.WithLabelValues("rank_result").Inc()
		h.logger.Error("result lookup failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("result lookup failed").WithError(err))
	}
	if !ok {
		return xhttp.NotFoundResponse(c, fmt.Sprintf("no result for sector %q", req.Sector))
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *RankHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

var _ xhttp.Handler = (*RankHandler)(nil)
