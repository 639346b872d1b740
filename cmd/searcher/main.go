package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/consumer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "language", cfg.Corpus.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	idx, err := indexer.BuildCorpus(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	exec := executor.New(idx, cfg.Search).WithMetrics(m)

	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(idx.DocCount))

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis).WithMetrics(m)
			exec.WithCache(queryCache)
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var h *handler.Handler
	if queryCache != nil {
		h = handler.New(exec, queryCache)
	} else {
		h = handler.New(exec, nil)
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, evaluation history disabled", "error", err)
		} else {
			defer db.Close()
			store := evaluation.NewStore(db)
			if err := store.Migrate(ctx); err != nil {
				slog.Warn("evaluation schema migration failed", "error", err)
			}
			h.WithRuns(store)
			checker.Register("postgres", health.PingCheck(db.Ping, false))
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryResults)
		defer producer.Close()
		queryConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryRequests,
			consumer.HandleQueryRequest(exec, producer))
		go func() {
			if err := queryConsumer.Start(ctx); err != nil {
				slog.Error("query consumer error", "error", err)
			}
		}()
		slog.Info("query stream enabled",
			"requests", cfg.Kafka.Topics.QueryRequests,
			"results", cfg.Kafka.Topics.QueryResults,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst, m),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
