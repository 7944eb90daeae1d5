package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/report"
	"github.com/MTxiong-wang/fundinsight-ai/internal/usecase"
	pkgcache "github.com/MTxiong-wang/fundinsight-ai/pkg/cache"
	pkgch "github.com/MTxiong-wang/fundinsight-ai/pkg/clickhouse"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/config"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	applogger "github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	rank       *usecase.RankFundsUseCase
	reports    *report.Writer
	jobs       *queue.RedisQueue
	chClient   *pkgch.Client
	publisher  domrepo.ResultPublisher
	rdb        *redis.Client
	cache      pkgcache.Service
	httpServer *xhttp.Server
}

// New creates a new App with the always-present dependencies. Optional
// infrastructure is attached through the setters so disabled components
// stay nil.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	handler xhttp.Handler,
	rank *usecase.RankFundsUseCase,
	reports *report.Writer,
) *App {
	return &App{
		cfg:     cfg,
		logger:  lgr,
		handler: handler,
		rank:    rank,
		reports: reports,
	}
}

// SetQueue attaches the background job queue.
func (a *App) SetQueue(q *queue.RedisQueue) { a.jobs = q }

// SetClickHouse attaches the archive connection so shutdown can close it.
func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// SetPublisher attaches the ranking publisher so shutdown can close it.
func (a *App) SetPublisher(p domrepo.ResultPublisher) { a.publisher = p }

// SetRedis attaches the queue's Redis connection so shutdown can close it.
func (a *App) SetRedis(c *redis.Client) { a.rdb = c }

// SetCache attaches the cache backend so shutdown can close it.
func (a *App) SetCache(c pkgcache.Service) { a.cache = c }

// Run starts the queue workers and the API server, then blocks until
// interrupted.
func (a *App) Run() error {
	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			return fmt.Errorf("start queue: %w", err)
		}
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, 2*time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("api started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// RunOnce executes a single ranking run and writes the markdown report.
// It returns the report path.
func (a *App) RunOnce(ctx context.Context, sector string, codes []string) (string, error) {
	result, err := a.rank.Run(ctx, usecase.RankParams{Sector: sector, Codes: codes})
	if err != nil {
		return "", err
	}

	path, err := a.reports.Write(result)
	if err != nil {
		return "", err
	}

	a.logger.Info("run finished",
		applogger.String("sector", result.Sector),
		applogger.Int("ranked", len(result.Ranked)),
		applogger.Int("failed", result.Failed),
		applogger.String("report", path))
	return path, nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first, then drain workers, then drop
	// the outbound connections they were using.
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.logger.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.Close()
	a.logger.Info("shutdown complete")
	return nil
}

// Close releases infrastructure connections. One-shot runs call it
// directly; serve mode reaches it through shutdown.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
}
