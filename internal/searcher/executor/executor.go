package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// Cache memoises evaluated programs. The bool reports a cache hit.
type Cache interface {
	GetOrCompute(ctx context.Context, fingerprint, program string, compute func() (index.PostingList, error)) (index.PostingList, bool, error)
}

type SearchResult struct {
	Query     string         `json:"query"`
	Program   string         `json:"program"`
	TotalHits int            `json:"total_hits"`
	DocIDs    []string       `json:"doc_ids"`
	TermStats map[string]int `json:"term_stats"`
	CacheHit  bool           `json:"cache_hit"`
}

// QueryResult is the outcome of one query in a batch. Err is set when the
// query could not be parsed or evaluated.
type QueryResult struct {
	QueryID string   `json:"query_id"`
	Query   string   `json:"query"`
	DocIDs  []string `json:"doc_ids"`
	Error   string   `json:"error,omitempty"`
	Err     error    `json:"-"`
}

type Executor struct {
	idx           *index.Index
	cache         Cache
	metrics       *metrics.Metrics
	maxConcurrent int
	timeout       time.Duration
	logger        *slog.Logger
}

func New(idx *index.Index, cfg config.SearchConfig) *Executor {
	maxConcurrent := cfg.MaxConcurrentQueries
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		idx:           idx,
		maxConcurrent: maxConcurrent,
		timeout:       cfg.QueryTimeout,
		logger:        slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) WithCache(c Cache) *Executor {
	e.cache = c
	return e
}

func (e *Executor) WithMetrics(m *metrics.Metrics) *Executor {
	e.metrics = m
	return e
}

func (e *Executor) Index() *index.Index {
	return e.idx
}

// Execute parses and evaluates a single query.
func (e *Executor) Execute(ctx context.Context, query string) (*SearchResult, error) {
	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	log := logger.FromContext(ctx).With("component", "query-executor")

	prog, err := parser.Parse(query)
	if err != nil {
		e.observe(metrics.OutcomeParseError, "none", start, 0)
		return nil, err
	}

	var docs index.PostingList
	cacheHit := false
	if e.cache != nil {
		docs, cacheHit, err = e.cache.GetOrCompute(ctx, e.idx.Fingerprint(), prog.String(), func() (index.PostingList, error) {
			return Evaluate(prog, e.idx)
		})
	} else {
		docs, err = Evaluate(prog, e.idx)
	}
	cacheStatus := cacheLabel(e.cache != nil, cacheHit)
	if err != nil {
		if errors.Is(err, apperrors.ErrEval) {
			e.observe(metrics.OutcomeEvalError, cacheStatus, start, 0)
		}
		return nil, fmt.Errorf("executing query %q: %w", query, err)
	}

	termStats := make(map[string]int)
	for _, term := range prog.Terms() {
		termStats[term] = len(e.idx.Get(term))
	}
	outcome := metrics.OutcomeOK
	if len(docs) == 0 {
		outcome = metrics.OutcomeZeroResult
	}
	e.observe(outcome, cacheStatus, start, len(docs))

	log.Debug("query executed",
		"query", query,
		"program", prog.String(),
		"results", len(docs),
		"cache_hit", cacheHit,
		"latency", time.Since(start),
	)
	return &SearchResult{
		Query:     query,
		Program:   prog.String(),
		TotalHits: len(docs),
		DocIDs:    docs,
		TermStats: termStats,
		CacheHit:  cacheHit,
	}, nil
}

// ExecuteBatch runs queries concurrently, at most maxConcurrent at a time,
// and returns their results in input order. Per-query failures are reported
// in QueryResult.Err; the returned error is only set when ctx ends first.
func (e *Executor) ExecuteBatch(ctx context.Context, queries []source.Query) ([]QueryResult, error) {
	start := time.Now()
	results := make([]QueryResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.Execute(logger.WithQueryID(gctx, q.ID), q.Query)
			results[i] = QueryResult{QueryID: q.ID, Query: q.Query, DocIDs: []string{}}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Err = err
				results[i].Error = err.Error()
				e.logger.Warn("query failed", "query_id", q.ID, "query", q.Query, "error", err)
				return nil
			}
			results[i].DocIDs = res.DocIDs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("executing batch: %w", err)
	}
	e.logger.Info("batch executed",
		"queries", len(queries),
		"concurrency", e.maxConcurrent,
		"elapsed", time.Since(start),
	)
	return results, nil
}

func (e *Executor) observe(outcome, cacheStatus string, start time.Time, hits int) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.QueryLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if outcome == metrics.OutcomeOK || outcome == metrics.OutcomeZeroResult {
		e.metrics.QueryResultSize.Observe(float64(hits))
	}
}

func cacheLabel(enabled, hit bool) string {
	switch {
	case !enabled:
		return "disabled"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}
