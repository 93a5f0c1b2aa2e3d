package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/streakd/internal/adapters/http/api"
	"github.com/okian/streakd/internal/adapters/judge"
	app "github.com/okian/streakd/internal/app"
	"github.com/okian/streakd/internal/config"
	"github.com/okian/streakd/internal/domain/group"
	"github.com/okian/streakd/pkg/logger"
	"github.com/okian/streakd/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// the custom registry carries our own system gauges
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxEventsPerMember(cfg.MaxEventsPerMember),
		app.WithDefaultWindowDays(cfg.DefaultWindowDays),
		app.WithMaxWindowDays(cfg.MaxWindowDays),
		app.WithMaxInFlight(cfg.MaxInFlightFetches),
		app.WithFetchTimeout(time.Duration(cfg.FetchTimeoutMS) * time.Millisecond),
	}
	fetcher, err := newFetcher(cfg)
	if err != nil {
		log.Error(ctx, "failed to build event fetcher", logger.Error(err))
		os.Exit(1)
	}
	if fetcher != nil {
		opts = append(opts, app.WithFetcher(fetcher))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("fetcher", cfg.Fetcher),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}

// newFetcher returns the configured external event source, or nil to read
// the service's own ingested submissions.
func newFetcher(cfg *config.Config) (group.Fetcher, error) {
	switch cfg.Fetcher {
	case config.FetcherJudge:
		c, err := judge.New(cfg.JudgeBaseURL, judge.WithTimeout(time.Duration(cfg.JudgeTimeoutMS)*time.Millisecond))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, nil
	}
}

func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

// startServiceMetricsUpdater refreshes queue and store gauges; GetStats
// updates them as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
