// Package evaluation scores retrieved result sets against relevance
// judgments and keeps a history of evaluation runs.
package evaluation

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// Judgments groups relevant documents by query. A query seen only with
// non-relevant lines is still known and has an empty relevant set.
type Judgments struct {
	relevant map[string]map[string]struct{}
}

func NewJudgments() *Judgments {
	return &Judgments{relevant: make(map[string]map[string]struct{})}
}

// JudgmentsFrom groups parsed qrels lines.
func JudgmentsFrom(lines []source.Judgment) *Judgments {
	j := NewJudgments()
	for _, l := range lines {
		j.Add(l.QueryID, l.DocID, l.Relevant)
	}
	return j
}

func (j *Judgments) Add(queryID, docID string, relevant bool) {
	set, ok := j.relevant[queryID]
	if !ok {
		set = make(map[string]struct{})
		j.relevant[queryID] = set
	}
	if relevant {
		set[docID] = struct{}{}
	}
}

func (j *Judgments) Has(queryID string) bool {
	_, ok := j.relevant[queryID]
	return ok
}

// Relevant returns the relevant set for queryID, or ErrMissingJudgment when
// the query never appeared in the judgments.
func (j *Judgments) Relevant(queryID string) (map[string]struct{}, error) {
	set, ok := j.relevant[queryID]
	if !ok {
		return nil, fmt.Errorf("query %q: %w", queryID, apperrors.ErrMissingJudgment)
	}
	return set, nil
}

func (j *Judgments) Queries() int {
	return len(j.relevant)
}

type QueryMetrics struct {
	QueryID   string  `json:"query_id"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

type Report struct {
	PerQuery      []QueryMetrics `json:"per_query"`
	MeanPrecision float64        `json:"mean_precision"`
	MeanRecall    float64        `json:"mean_recall"`
	Queries       int            `json:"queries"`
}

// Score compares one predicted result set with its relevant set.
// Precision and recall are 0 when their denominator is 0.
func Score(queryID string, predicted []string, relevant map[string]struct{}) QueryMetrics {
	seen := make(map[string]struct{}, len(predicted))
	m := QueryMetrics{QueryID: queryID}
	for _, id := range predicted {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := relevant[id]; ok {
			m.TP++
		} else {
			m.FP++
		}
	}
	for id := range relevant {
		if _, ok := seen[id]; !ok {
			m.FN++
		}
	}
	if m.TP+m.FP > 0 {
		m.Precision = float64(m.TP) / float64(m.TP+m.FP)
	}
	if m.TP+m.FN > 0 {
		m.Recall = float64(m.TP) / float64(m.TP+m.FN)
	}
	return m
}

// Evaluate scores every result in order and averages precision and recall
// over all of them. A failed query counts as an empty prediction.
func Evaluate(results []executor.QueryResult, judgments *Judgments) (*Report, error) {
	report := &Report{PerQuery: make([]QueryMetrics, 0, len(results)), Queries: len(results)}
	var sumP, sumR float64
	for _, res := range results {
		relevant, err := judgments.Relevant(res.QueryID)
		if err != nil {
			return nil, err
		}
		m := Score(res.QueryID, res.DocIDs, relevant)
		sumP += m.Precision
		sumR += m.Recall
		report.PerQuery = append(report.PerQuery, m)
	}
	if len(results) > 0 {
		report.MeanPrecision = sumP / float64(len(results))
		report.MeanRecall = sumR / float64(len(results))
	}
	return report, nil
}

// Log writes one line per query and a summary line.
func (r *Report) Log(logger *slog.Logger) {
	for _, m := range r.PerQuery {
		logger.Info("query evaluated",
			"query_id", m.QueryID,
			"precision", m.Precision,
			"recall", m.Recall,
			"tp", m.TP, "fp", m.FP, "fn", m.FN,
		)
	}
	logger.Info("evaluation complete",
		"queries", r.Queries,
		"mean_precision", r.MeanPrecision,
		"mean_recall", r.MeanRecall,
	)
}

// Observe publishes the mean scores as gauges.
func (r *Report) Observe(m *metrics.Metrics) {
	if m == nil {
		return
	}
	m.EvalMeanPrecision.Set(r.MeanPrecision)
	m.EvalMeanRecall.Set(r.MeanRecall)
}
