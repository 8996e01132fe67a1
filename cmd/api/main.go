package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/completion"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/db"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/health"
	httpx "github.com/geocoder89/learnhub/internal/http"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/moderation"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/redisclient"
	"github.com/geocoder89/learnhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.ServiceName, cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
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

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{AppName: cfg.ServiceName, MaxConns: 10})
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureAdminUser(ctx, pool, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer rdb.Close()

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	contentsRepo := postgres.NewContentsRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	// mock auth is decided once, here
	var resolverOpts []auth.ResolverOption
	var mockStore auth.MockStore
	if cfg.MockAuth {
		if rdb != nil {
			mockStore = auth.NewRedisMockStore(rdb.Raw())
		} else {
			mockStore = auth.NewMemoryMockStore()
		}
		resolverOpts = append(resolverOpts, auth.WithMockStore(mockStore))
		log.Warn("mock auth enabled")
	}

	resolver := auth.NewResolver(jwtManager, usersRepo, log, resolverOpts...)

	broker := auth.NewBroker(rdb.Raw(), log)
	unsubscribe := broker.Subscribe(resolver.OnRoleChange)
	defer unsubscribe()

	go func() {
		if err := broker.Listen(ctx); err != nil {
			log.Error("role change listener stopped", "err", err)
		}
	}()

	completionClient := completion.New(completion.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})

	agg := health.NewAggregator(health.LogReporter{Log: log}, prom, dependencyCheckers(pool, rdb, completionClient)...)

	var shuttingDown atomic.Bool

	// set up routers with the deps
	router := httpx.NewRouter(httpx.Deps{
		Config:    cfg,
		Log:       log,
		Prom:      prom,
		Gatherer:  prometheus.DefaultGatherer,
		Resolver:  resolver,
		JWT:       jwtManager,
		Providers: socialProviders(cfg, log),
		Refresh:   refreshRepo,
		Broker:    broker,
		MockAuth:  mockStore,
		Users:     usersRepo,
		Contents:  moderation.NewWorkflow(contentsRepo, jobsRepo, prom, log),
		Jobs:      jobsRepo,
		Health:    agg,
		Ready: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		IsShuttingDown: shuttingDown.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	shuttingDown.Store(true)
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// dependencyCheckers leaves a checker's target as a nil interface when the
// dependency is not configured, which reports degraded.
func dependencyCheckers(pool health.Pinger, rdb *redisclient.Client, cc *completion.Client) []health.Checker {
	var cache, comp health.Pinger
	if rdb != nil {
		cache = rdb
	}
	if cc != nil {
		comp = cc
	}
	return []health.Checker{health.Database(pool), health.Cache(cache), health.Completion(comp)}
}

func socialProviders(cfg config.Config, log *slog.Logger) map[user.Provider]handlers.SocialLogin {
	out := make(map[user.Provider]handlers.SocialLogin)

	for name, c := range cfg.OAuth {
		if c.ClientID == "" {
			continue
		}

		p, err := auth.NewSocialProvider(user.Provider(name), auth.SocialConfig{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
		})
		if err != nil {
			log.Warn("social provider skipped", "provider", name, "err", err)
			continue
		}
		out[p.Name()] = p
	}

	log.Info("social login providers", "count", len(out))
	return out
}
