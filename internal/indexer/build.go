// Package indexer builds the frozen boolean index from the configured
// corpus.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// Build indexes every document src yields across cfg.NumShards builders and
// returns the merged, frozen index. m may be nil.
func Build(ctx context.Context, cfg config.IndexerConfig, src source.DocumentSource, m *metrics.Metrics) (*index.Index, error) {
	start := time.Now()
	router, err := shard.NewRouter(cfg.NumShards, cfg.QueueSize)
	if err != nil {
		return nil, err
	}
	idx, err := router.Build(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	if m != nil {
		m.IndexDocuments.Set(float64(idx.DocCount()))
		m.IndexTerms.Set(float64(idx.TermCount()))
	}
	slog.Default().With("component", "indexer").Info("index built",
		"shards", cfg.NumShards,
		"documents", idx.DocCount(),
		"terms", idx.TermCount(),
		"fingerprint", idx.Fingerprint(),
		"elapsed", time.Since(start),
	)
	return idx, nil
}

// BuildCorpus builds the index from the XML collection named by cfg.
func BuildCorpus(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*index.Index, error) {
	src := source.NewXMLDirSource(cfg.Corpus.DocumentsDir, cfg.Corpus.IndexedFields())
	return Build(ctx, cfg.Indexer, src, m)
}
