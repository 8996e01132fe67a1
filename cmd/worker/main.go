package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/learnhub/internal/completion"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/db"
	"github.com/geocoder89/learnhub/internal/health"
	"github.com/geocoder89/learnhub/internal/jobs"
	"github.com/geocoder89/learnhub/internal/notifications"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/queue/worker"
	"github.com/geocoder89/learnhub/internal/redisclient"
	"github.com/geocoder89/learnhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger("learnhub-worker", cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "learnhub-worker",
			Environment: cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
			SampleRatio: cfg.OTELSampleRatio,
			Insecure:    cfg.Env != "prod",
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() { _ = shutdownTracer(context.Background()) }()
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{AppName: "learnhub-worker", MaxConns: int32(cfg.WorkerConcurrency) + 2})
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	contentsRepo := postgres.NewContentsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)

	notifier := notifications.NewProtectedNotifier(notifications.NewLogNotifier(log), notifications.ProtectedNotifierConfig{})

	completionClient := completion.New(completion.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})

	// a nil *completion.Client must not become a non-nil interface
	var summarizer jobs.Summarizer
	if completionClient != nil {
		summarizer = completionClient
	} else {
		log.Warn("no completion api key; review summaries are skipped")
	}

	jh := jobs.NewHandlers(contentsRepo, usersRepo, summarizer, notifier, log)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  100 * time.Millisecond,
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
	}, jobsRepo, prom, log)

	w.Register(string(jobs.JobSummarizeReview), jh.SummarizeReview)
	w.Register(string(jobs.JobNotifyModeration), jh.NotifyModeration)

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           w.HealthHandler(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	if cfg.MonitoringURL != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		var cache, comp health.Pinger
		if rdb != nil {
			cache = rdb
		}
		if completionClient != nil {
			comp = completionClient
		}

		agg := health.NewAggregator(health.LogReporter{Log: log}, prom,
			health.Database(pool), health.Cache(cache), health.Completion(comp))

		go health.NewMonitor(agg, cfg.MonitoringURL, cfg.MonitoringInterval, log).Run(ctx)
	}

	log.Info("worker has started", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
