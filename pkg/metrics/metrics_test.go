package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersOnSuppliedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.QueriesTotal.WithLabelValues(OutcomeOK).Inc()
	m.QueriesTotal.WithLabelValues(OutcomeParseError).Add(2)
	m.EvalMeanRecall.Set(0.5)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`boolean_queries_total{outcome="ok"} 1`,
		`boolean_queries_total{outcome="parse_error"} 2`,
		`evaluation_mean_recall 0.5`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
