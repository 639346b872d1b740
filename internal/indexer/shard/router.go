// Package shard provides hash-based sharding for the index build phase.
// Each shard owns an independent index.Builder fed by its own goroutine;
// once the corpus is consumed the shards are unioned and frozen into a
// single index.Index.
package shard

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	farmhash "github.com/leemcloughlin/gofarmhash"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// Router maps shard IDs to dedicated index.Builder instances.
type Router struct {
	builders   []*index.Builder
	numShards  int
	bufferSize int
	built      atomic.Bool
	logger     *slog.Logger
}

// NewRouter creates numShards empty builders. bufferSize bounds the
// per-shard document queue.
func NewRouter(numShards int, bufferSize int) (*Router, error) {
	if numShards < 1 {
		return nil, fmt.Errorf("shard count must be positive, got %d: %w", numShards, apperrors.ErrInvalidInput)
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Router{
		builders:   make([]*index.Builder, numShards),
		numShards:  numShards,
		bufferSize: bufferSize,
		logger:     slog.Default().With("component", "shard-router"),
	}
	for i := range r.builders {
		r.builders[i] = index.NewBuilder()
	}
	return r, nil
}

// ShardFor returns the shard that owns docID.
func (r *Router) ShardFor(docID string) int {
	return int(farmhash.Hash32WithSeed([]byte(docID), 0) % uint32(r.numShards))
}

// Route returns the Builder responsible for the given shard ID.
func (r *Router) Route(shardID int) (*index.Builder, error) {
	if shardID < 0 || shardID >= r.numShards {
		return nil, fmt.Errorf("unknown shard ID %d (valid range: 0-%d)", shardID, r.numShards-1)
	}
	return r.builders[shardID], nil
}

// NumShards returns the number of shards managed by this router.
func (r *Router) NumShards() int {
	return r.numShards
}

// Build consumes src, indexing every document into its shard concurrently,
// then merges all shards and freezes the result. A Router builds once; a
// second call returns ErrInvalidPhase without touching src.
func (r *Router) Build(ctx context.Context, src source.DocumentSource) (*index.Index, error) {
	if !r.built.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("router already built its index: %w", apperrors.ErrInvalidPhase)
	}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	queues := make([]chan source.Document, r.numShards)
	for i := range queues {
		queues[i] = make(chan source.Document, r.bufferSize)
	}

	for i := range r.builders {
		shardID := i
		builder := r.builders[i]
		g.Go(func() error {
			for doc := range queues[shardID] {
				if err := builder.Add(doc.ID, doc.Text); err != nil {
					return fmt.Errorf("shard %d: %w", shardID, err)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return src.Documents(gctx, func(doc source.Document) error {
			select {
			case queues[r.ShardFor(doc.ID)] <- doc:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building shards: %w", err)
	}

	merged := r.builders[0]
	for i := 1; i < r.numShards; i++ {
		r.logger.Debug("merging shard", "shard_id", i, "docs", r.builders[i].DocCount())
		if err := merged.Merge(r.builders[i]); err != nil {
			return nil, fmt.Errorf("merging shard %d: %w", i, err)
		}
	}
	idx, err := merged.Finish()
	if err != nil {
		return nil, err
	}
	r.logger.Info("sharded index built",
		"num_shards", r.numShards,
		"docs", idx.DocCount(),
		"terms", idx.TermCount(),
		"elapsed", time.Since(start),
	)
	return idx, nil
}
