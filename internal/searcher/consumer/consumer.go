// Package consumer answers boolean queries that arrive on a Kafka topic and
// publishes their results to another.
package consumer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
)

type QueryExecutor interface {
	Execute(ctx context.Context, query string) (*executor.SearchResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// HandleQueryRequest decodes {query_id, query} payloads, evaluates them and
// publishes an executor.QueryResult keyed by query id. Undecodable payloads
// are logged and acknowledged. Parse and evaluation failures are published
// as results carrying the error. Only a publish failure is returned, which
// leaves the request uncommitted.
func HandleQueryRequest(exec QueryExecutor, pub Publisher) kafka.MessageHandler {
	log := logger.WithComponent("query-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[source.Query](value)
		if err != nil || strings.TrimSpace(req.ID) == "" {
			log.Error("skipping malformed query request", "key", string(key), "error", err)
			return nil
		}
		ctx = logger.WithQueryID(ctx, req.ID)

		result := executor.QueryResult{QueryID: req.ID, Query: req.Query, DocIDs: []string{}}
		res, err := exec.Execute(ctx, req.Query)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.Error = err.Error()
			logger.FromContext(ctx).Warn("query request failed", "query", req.Query, "error", err)
		} else {
			result.DocIDs = res.DocIDs
		}

		if err := pub.Publish(ctx, kafka.Event{Key: req.ID, Value: result}); err != nil {
			return fmt.Errorf("publishing result for %s: %w", req.ID, err)
		}
		logger.FromContext(ctx).Debug("query request answered", "hits", len(result.DocIDs))
		return nil
	}
}
