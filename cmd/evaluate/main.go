package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	language := flag.String("language", "", "collection language (cz or en), overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *language != "" {
		cfg.Corpus.Language = *language
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid language: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	slog.Info("building index",
		"language", cfg.Corpus.Language,
		"documents_dir", cfg.Corpus.DocumentsDir,
		"fields", cfg.Corpus.IndexedFields(),
		"shards", cfg.Indexer.NumShards,
	)
	idx, err := indexer.BuildCorpus(ctx, cfg, m)
	if err != nil {
		return err
	}

	queries, err := readTopics(cfg.Corpus.TopicsFile)
	if err != nil {
		return err
	}
	exec := executor.New(idx, cfg.Search).WithMetrics(m)
	results, err := exec.ExecuteBatch(ctx, queries)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topics could not be evaluated", failed, len(results))
	}

	if err := writeResults(cfg.Corpus.OutputFile, results); err != nil {
		return err
	}
	slog.Info("results written", "file", cfg.Corpus.OutputFile, "queries", len(results))

	judgments, err := readJudgments(cfg.Corpus.QrelsFile)
	if err != nil {
		return err
	}
	report, err := evaluation.Evaluate(results, judgments)
	if err != nil {
		return err
	}
	report.Log(logger.WithComponent("evaluation"))
	report.Observe(m)

	run := &evaluation.Run{
		Language:         cfg.Corpus.Language,
		IndexFingerprint: idx.Fingerprint(),
		Report:           report,
	}
	if cfg.Postgres.Enabled {
		if err := saveRun(ctx, cfg.Postgres, run); err != nil {
			slog.Error("failed to persist evaluation run", "error", err)
		}
	}
	if cfg.Kafka.Enabled {
		if err := publishResults(ctx, cfg.Kafka, results); err != nil {
			slog.Error("failed to publish results", "error", err)
		}
	}
	return nil
}

func readTopics(path string) ([]source.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topics: %w", err)
	}
	defer f.Close()
	return source.ReadTopics(f)
}

func readJudgments(path string) (*evaluation.Judgments, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels: %w", err)
	}
	defer f.Close()
	lines, err := source.ReadQrels(f)
	if err != nil {
		return nil, err
	}
	return evaluation.JudgmentsFrom(lines), nil
}

func writeResults(path string, results []executor.QueryResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	w := source.NewResultWriter(f)
	for _, r := range results {
		if err := w.Write(r.QueryID, r.DocIDs); err != nil {
			f.Close()
			return fmt.Errorf("writing results: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing results: %w", err)
	}
	return f.Close()
}

func saveRun(ctx context.Context, cfg config.PostgresConfig, run *evaluation.Run) error {
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := evaluation.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.SaveRun(ctx, run)
}

func publishResults(ctx context.Context, cfg config.KafkaConfig, results []executor.QueryResult) error {
	producer := kafka.NewProducer(cfg, cfg.Topics.QueryResults)
	defer producer.Close()
	events := make([]kafka.Event, 0, len(results))
	for _, r := range results {
		events = append(events, kafka.Event{Key: r.QueryID, Value: r})
	}
	return producer.PublishBatch(ctx, events)
}
