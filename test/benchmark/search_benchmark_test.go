package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
)

var benchQueries = []struct {
	name  string
	query string
}{
	{"term", "storm"},
	{"and", "storm AND rain AND coast"},
	{"or", "vote OR court OR police"},
	{"not", "storm AND NOT rain"},
	{"nested", "(storm OR wind) AND NOT (city OR river) OR NOT NOT bank"},
}

func BenchmarkQueryParse(b *testing.B) {
	for _, q := range benchQueries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := parser.Parse(q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func benchExecutor(b *testing.B, docs int) *executor.Executor {
	b.Helper()
	bld := index.NewBuilder()
	for _, d := range syntheticCorpus(docs) {
		if err := bld.Add(d.ID, d.Text); err != nil {
			b.Fatal(err)
		}
	}
	idx, err := bld.Finish()
	if err != nil {
		b.Fatal(err)
	}
	return executor.New(idx, config.SearchConfig{MaxConcurrentQueries: 8})
}

func BenchmarkExecute(b *testing.B) {
	exec := benchExecutor(b, 10000)
	for _, q := range benchQueries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := exec.Execute(context.Background(), q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkExecuteParallel(b *testing.B) {
	exec := benchExecutor(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := exec.Execute(context.Background(), "storm AND NOT rain"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkExecuteBatch(b *testing.B) {
	exec := benchExecutor(b, 10000)
	queries := make([]source.Query, 50)
	for i := range queries {
		queries[i] = source.Query{ID: fmt.Sprintf("q%d", i), Query: benchQueries[i%len(benchQueries)].query}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.ExecuteBatch(context.Background(), queries); err != nil {
			b.Fatal(err)
		}
	}
}
