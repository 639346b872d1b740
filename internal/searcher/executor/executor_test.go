package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// petIndex: universe {1..5}, cat -> [1 3 5], dog -> [2 3].
func petIndex(t testing.TB) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	docs := []struct{ id, text string }{
		{"1", "cat"},
		{"2", "dog"},
		{"3", "cat dog"},
		{"4", "bird"},
		{"5", "cat"},
	}
	for _, d := range docs {
		if err := b.Add(d.id, d.text); err != nil {
			t.Fatal(err)
		}
	}
	idx, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestExecuteEndToEnd(t *testing.T) {
	exec := New(petIndex(t), config.SearchConfig{MaxConcurrentQueries: 2})
	tests := []struct {
		query string
		want  []string
	}{
		{"cat AND dog", []string{"3"}},
		{"cat OR dog", []string{"1", "2", "3", "5"}},
		{"NOT cat", []string{"2", "4"}},
		{"cat AND NOT dog", []string{"1", "5"}},
		{"NOT NOT cat", []string{"1", "3", "5"}},
		{"NOT (cat OR dog)", []string{"4"}},
		{"bird OR cat AND dog", []string{"3", "4"}},
		{"(bird OR cat) AND dog", []string{"3"}},
		{"unicorn", []string{}},
		{"unicorn OR dog", []string{"2", "3"}},
		{"NOT unicorn", []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := exec.Execute(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !reflect.DeepEqual(res.DocIDs, tt.want) {
				t.Errorf("DocIDs = %v, want %v", res.DocIDs, tt.want)
			}
			if res.TotalHits != len(tt.want) {
				t.Errorf("TotalHits = %d, want %d", res.TotalHits, len(tt.want))
			}
		})
	}
}

func TestExecuteTermStats(t *testing.T) {
	exec := New(petIndex(t), config.SearchConfig{})
	res, err := exec.Execute(context.Background(), "cat AND NOT unicorn")
	if err != nil {
		t.Fatal(err)
	}
	if res.TermStats["cat"] != 3 || res.TermStats["unicorn"] != 0 {
		t.Errorf("TermStats = %v", res.TermStats)
	}
	if res.Program != "cat unicorn NOT AND" {
		t.Errorf("Program = %q", res.Program)
	}
}

func TestExecuteMalformedQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	exec := New(petIndex(t), config.SearchConfig{}).WithMetrics(metrics.New(reg))
	_, err := exec.Execute(context.Background(), "cat AND")
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not a *parser.ParseError", err)
	}
}

func TestEvaluateRejectsMalformedProgram(t *testing.T) {
	idx := petIndex(t)
	tests := []struct {
		name string
		prog *parser.Program
	}{
		{"empty", &parser.Program{}},
		{"two operands", &parser.Program{Instructions: []parser.Instruction{
			{Op: parser.OpTerm, Term: "cat"}, {Op: parser.OpTerm, Term: "dog"},
		}}},
		{"and underflow", &parser.Program{Instructions: []parser.Instruction{
			{Op: parser.OpTerm, Term: "cat"}, {Op: parser.OpAnd},
		}}},
		{"not underflow", &parser.Program{Instructions: []parser.Instruction{{Op: parser.OpNot}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.prog, idx)
			if !errors.Is(err, apperrors.ErrEval) {
				t.Errorf("error = %v, want ErrEval", err)
			}
		})
	}
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	exec := New(petIndex(t), config.SearchConfig{MaxConcurrentQueries: 3})
	queries := make([]source.Query, 0, 40)
	for i := 0; i < 40; i++ {
		q := "cat AND dog"
		if i%2 == 1 {
			q = "NOT cat"
		}
		queries = append(queries, source.Query{ID: fmt.Sprintf("q%02d", i), Query: q})
	}
	queries = append(queries, source.Query{ID: "bad", Query: "(cat"})

	results, err := exec.ExecuteBatch(context.Background(), queries)
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != len(queries) {
		t.Fatalf("got %d results, want %d", len(results), len(queries))
	}
	for i, res := range results[:40] {
		if res.QueryID != queries[i].ID {
			t.Fatalf("result %d has id %q, want %q", i, res.QueryID, queries[i].ID)
		}
		want := []string{"3"}
		if i%2 == 1 {
			want = []string{"2", "4"}
		}
		if !reflect.DeepEqual(res.DocIDs, want) {
			t.Errorf("%s: DocIDs = %v, want %v", res.QueryID, res.DocIDs, want)
		}
	}
	bad := results[40]
	if !errors.Is(bad.Err, apperrors.ErrParse) || bad.Error == "" {
		t.Errorf("malformed query result = %+v, want ParseError", bad)
	}
}

func TestExecuteBatchCancelled(t *testing.T) {
	exec := New(petIndex(t), config.SearchConfig{MaxConcurrentQueries: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.ExecuteBatch(ctx, []source.Query{{ID: "1", Query: "cat"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type memoCache struct {
	mu      sync.Mutex
	entries map[string]index.PostingList
	calls   int
}

func (c *memoCache) GetOrCompute(ctx context.Context, fingerprint, program string, compute func() (index.PostingList, error)) (index.PostingList, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fingerprint + "|" + program
	if docs, ok := c.entries[key]; ok {
		return docs, true, nil
	}
	c.calls++
	docs, err := compute()
	if err != nil {
		return nil, false, err
	}
	c.entries[key] = docs
	return docs, false, nil
}

func TestExecuteUsesCache(t *testing.T) {
	cache := &memoCache{entries: make(map[string]index.PostingList)}
	exec := New(petIndex(t), config.SearchConfig{}).WithCache(cache)

	first, err := exec.Execute(context.Background(), "cat AND dog")
	if err != nil {
		t.Fatal(err)
	}
	second, err := exec.Execute(context.Background(), "cat  AND  dog")
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("cache hits = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if cache.calls != 1 {
		t.Errorf("compute called %d times, want 1", cache.calls)
	}
	if !reflect.DeepEqual(first.DocIDs, second.DocIDs) {
		t.Errorf("cached result %v differs from computed %v", second.DocIDs, first.DocIDs)
	}
}
