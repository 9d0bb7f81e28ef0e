package domain

import (
	"fmt"
	"time"
)

// AgentResponse is what the external agent function returns for one query.
type AgentResponse struct {
	// Text is the produced answer text.
	Text string `json:"text"`

	// RetrievedDocuments are the document ids the agent retrieved, in rank order.
	RetrievedDocuments []string `json:"retrieved_documents"`

	// Confidence is the agent's stated confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Trace records one benchmark execution.
type Trace struct {
	QueryID         string          `json:"query_id"`
	Text            string          `json:"text"`
	RetrievedIDs    []string        `json:"retrieved_ids"`
	ExpectedIDs     []string        `json:"expected_ids"`
	Precision       float64         `json:"precision"`
	HasNextStep     bool            `json:"has_next_step"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ExecutionTime   time.Duration   `json:"execution_time"`
	Error           string          `json:"error,omitempty"`
	TimedOut        bool            `json:"timed_out,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Failed reports whether the execution itself errored or timed out.
func (t Trace) Failed() bool {
	return t.Error != "" || t.TimedOut
}

// TraceMetrics are the per-trace scores against a golden query.
type TraceMetrics struct {
	QueryID             string  `json:"query_id"`
	PrecisionAtK        float64 `json:"precision_at_k"`
	ReciprocalRank      float64 `json:"reciprocal_rank"`
	NDCGAtK             float64 `json:"ndcg_at_k"`
	Confidence          float64 `json:"confidence"`
	BrierComponent      float64 `json:"brier_component"`
	Correct             bool    `json:"correct"`
	Faithfulness        float64 `json:"faithfulness"`
	CitationCorrectness float64 `json:"citation_correctness"`
	Completeness        float64 `json:"completeness"`
	HasNextStep         bool    `json:"has_next_step"`
}

// CalibrationBin is one reliability-diagram bin.
type CalibrationBin struct {
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
	Accuracy       float64 `json:"accuracy"`
}

// AggregateMetrics are unweighted means over all traces.
type AggregateMetrics struct {
	K                   int              `json:"k"`
	Count               int              `json:"count"`
	PrecisionAtK        float64          `json:"precision_at_k"`
	MRR                 float64          `json:"mrr"`
	NDCGAtK             float64          `json:"ndcg_at_k"`
	Brier               float64          `json:"brier"`
	ECE                 float64          `json:"ece"`
	Faithfulness        float64          `json:"faithfulness"`
	CitationCorrectness float64          `json:"citation_correctness"`
	Completeness        float64          `json:"completeness"`
	NextStepRate        float64          `json:"next_step_rate"`
	Bins                []CalibrationBin `json:"bins"`
}

// GateComparator says which side of the threshold passes.
type GateComparator string

// Gate comparators.
const (
	GateAtLeast GateComparator = ">="
	GateAtMost  GateComparator = "<="
)

// QualityGate is one named pass/fail criterion.
type QualityGate struct {
	Name       string         `json:"name"`
	Actual     float64        `json:"actual"`
	Threshold  float64        `json:"threshold"`
	Comparator GateComparator `json:"comparator"`
	Passed     bool           `json:"passed"`
}

// Margin returns the signed distance from the threshold; positive means passing.
func (g QualityGate) Margin() float64 {
	if g.Comparator == GateAtMost {
		return g.Threshold - g.Actual
	}
	return g.Actual - g.Threshold
}

// MarginText renders the margin for humans.
func (g QualityGate) MarginText() string {
	m := g.Margin()
	side := "above"
	if g.Comparator == GateAtMost {
		side = "below"
	}
	if m < 0 {
		return fmt.Sprintf("misses %s %.2f by %.3f", g.Comparator, g.Threshold, -m)
	}
	return fmt.Sprintf("%.3f %s %.2f", m, side, g.Threshold)
}

// BalanceReport describes how well a dataset covers types and difficulties.
type BalanceReport struct {
	Balanced          bool                   `json:"balanced"`
	Issues            []string               `json:"issues"`
	TypeCounts        map[QueryType]int      `json:"type_counts"`
	DifficultyPercent map[Difficulty]float64 `json:"difficulty_percent"`
	NoAnswerCount     int                    `json:"no_answer_count"`
}

// BenchmarkReport is the full outcome of a benchmark run.
type BenchmarkReport struct {
	RunID         string            `json:"run_id"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	DatasetPath   string            `json:"dataset_path"`
	DatasetSize   int               `json:"dataset_size"`
	Optimizations []string          `json:"enabled_optimizations"`
	Traces        []Trace           `json:"traces"`
	PerTrace      []TraceMetrics    `json:"per_trace"`
	Aggregate     AggregateMetrics  `json:"aggregate"`
	Gates         []QualityGate     `json:"gates"`
	Failures      []FailureInstance `json:"failures"`
	Backlog       []BacklogItem     `json:"backlog"`
	Balance       *BalanceReport    `json:"balance,omitempty"`
}

// Passed reports whether every quality gate passed.
func (r BenchmarkReport) Passed() bool {
	for _, g := range r.Gates {
		if !g.Passed {
			return false
		}
	}
	return true
}

// RunSummary is a compact persisted view of a benchmark run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	DatasetPath  string    `json:"dataset_path"`
	DatasetSize  int       `json:"dataset_size"`
	PrecisionAtK float64   `json:"precision_at_k"`
	MRR          float64   `json:"mrr"`
	NDCGAtK      float64   `json:"ndcg_at_k"`
	ECE          float64   `json:"ece"`
	Failures     int       `json:"failures"`
	Passed       bool      `json:"passed"`
}

// Summary returns the compact persisted view of the report.
func (r BenchmarkReport) Summary() RunSummary {
	return RunSummary{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt,
		DatasetPath:  r.DatasetPath,
		DatasetSize:  r.DatasetSize,
		PrecisionAtK: r.Aggregate.PrecisionAtK,
		MRR:          r.Aggregate.MRR,
		NDCGAtK:      r.Aggregate.NDCGAtK,
		ECE:          r.Aggregate.ECE,
		Failures:     len(r.Failures),
		Passed:       r.Passed(),
	}
}
