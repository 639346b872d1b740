// Package handler serves the boolean search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
)

const maxBatchQueries = 1000

type SearchExecutor interface {
	Execute(ctx context.Context, query string) (*executor.SearchResult, error)
	ExecuteBatch(ctx context.Context, queries []source.Query) ([]executor.QueryResult, error)
	Index() *index.Index
}

// CacheAdmin exposes cache statistics and invalidation.
type CacheAdmin interface {
	Stats() cache.Stats
	Invalidate(ctx context.Context) (int64, error)
}

// RunLister reads stored evaluation runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]evaluation.Run, error)
}

type Handler struct {
	executor SearchExecutor
	cache    CacheAdmin
	runs     RunLister
	logger   *slog.Logger
}

// New builds the handler. queryCache may be nil when caching is disabled.
func New(exec SearchExecutor, queryCache CacheAdmin) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

func (h *Handler) WithRuns(runs RunLister) *Handler {
	h.runs = runs
	return h
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search/batch", h.SearchBatch)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/evaluations", h.Evaluations)
}

type errorResponse struct {
	Error    string `json:"error"`
	Position *int   `json:"position,omitempty"`
	Token    string `json:"token,omitempty"`
}

// Search evaluates ?q=. An optional ?limit= truncates doc_ids in the
// response; total_hits always reports the full result size.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	result, err := h.executor.Execute(ctx, query)
	if err != nil {
		log.Warn("search failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}
	if limit > 0 && len(result.DocIDs) > limit {
		trimmed := *result
		trimmed.DocIDs = result.DocIDs[:limit]
		result = &trimmed
	}
	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"cache_hit", result.CacheHit,
	)
	h.writeJSON(w, http.StatusOK, result)
}

// SearchBatch runs a JSON array of {query_id, query} objects and returns the
// results in the same order.
func (h *Handler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var queries []source.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&queries); err != nil {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "decoding batch: %v", err))
		return
	}
	if len(queries) == 0 || len(queries) > maxBatchQueries {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "batch must hold 1 to %d queries", maxBatchQueries))
		return
	}
	results, err := h.executor.ExecuteBatch(r.Context(), queries)
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "batch cancelled"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	idx := h.executor.Index()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents":   idx.DocCount(),
		"terms":       idx.TermCount(),
		"fingerprint": idx.Fingerprint(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidPhase, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// Evaluations lists stored evaluation runs, newest first; ?limit= defaults
// to 10.
func (h *Handler) Evaluations(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidPhase, http.StatusServiceUnavailable, "evaluation store is disabled"))
		return
	}
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing evaluation runs failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "listing evaluation runs failed"))
		return
	}
	if runs == nil {
		runs = []evaluation.Run{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		pos := pe.Pos
		resp.Position = &pos
		resp.Token = pe.Token
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), resp)
}
