package indexer

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

func TestBuildSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	src := source.SliceSource{{ID: "1", Text: "cat"}, {ID: "2", Text: "dog"}, {ID: "3", Text: "cat dog"}}
	idx, err := Build(context.Background(), config.IndexerConfig{NumShards: 2}, src, m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(idx.Get("cat"), index.PostingList{"1", "3"}) {
		t.Errorf("cat = %v", idx.Get("cat"))
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "index_documents" {
			found = mf.GetMetric()[0].GetGauge().GetValue() == 3
		}
	}
	if !found {
		t.Error("index_documents gauge not set to 3")
	}
}

func TestBuildCorpus(t *testing.T) {
	dir := t.TempDir()
	xml := `<ROOT><DOC><DOCID>A</DOCID><HD>Storm hits coast</HD><TE>rain</TE></DOC>` +
		`<DOC><DOCID>B</DOCID><LD>coast guard</LD></DOC></ROOT>`
	if err := os.WriteFile(filepath.Join(dir, "la.xml"), []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Corpus:  config.CorpusConfig{Language: "en", DocumentsDir: dir},
		Indexer: config.IndexerConfig{NumShards: 3},
	}
	idx, err := BuildCorpus(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("BuildCorpus: %v", err)
	}
	if got := strings.Join(idx.Get("coast"), ","); got != "A,B" {
		t.Errorf("coast = %s", got)
	}
	if idx.DocCount() != 2 {
		t.Errorf("DocCount = %d", idx.DocCount())
	}
}

func TestBuildRejectsZeroShards(t *testing.T) {
	if _, err := Build(context.Background(), config.IndexerConfig{}, source.SliceSource{}, nil); err == nil {
		t.Error("expected error for zero shards")
	}
}
