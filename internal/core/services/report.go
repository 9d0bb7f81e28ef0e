package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// BenchmarkArtifact is the machine-readable record of a benchmark run.
type BenchmarkArtifact struct {
	RunID         string                     `json:"run_id"`
	StartedAt     time.Time                  `json:"started_at"`
	FinishedAt    time.Time                  `json:"finished_at"`
	DatasetPath   string                     `json:"dataset_path"`
	DatasetSize   int                        `json:"dataset_size"`
	Optimizations []string                   `json:"enabled_optimizations"`
	PassCriteria  []domain.QualityGate       `json:"pass_criteria"`
	Passed        bool                       `json:"passed"`
	Aggregate     domain.AggregateMetrics    `json:"aggregate"`
	FailureCounts map[domain.FailureMode]int `json:"failure_counts"`
	Backlog       []domain.BacklogItem       `json:"backlog"`
	Balance       *domain.BalanceReport      `json:"balance,omitempty"`
}

// NewBenchmarkArtifact builds the artifact for a report.
func NewBenchmarkArtifact(r *domain.BenchmarkReport) BenchmarkArtifact {
	counts := make(map[domain.FailureMode]int)
	for _, f := range r.Failures {
		counts[f.Mode]++
	}
	return BenchmarkArtifact{
		RunID:         r.RunID,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DatasetPath:   r.DatasetPath,
		DatasetSize:   r.DatasetSize,
		Optimizations: r.Optimizations,
		PassCriteria:  r.Gates,
		Passed:        r.Passed(),
		Aggregate:     r.Aggregate,
		FailureCounts: counts,
		Backlog:       r.Backlog,
		Balance:       r.Balance,
	}
}

// RenderJSON renders the machine-readable artifact.
func RenderJSON(r *domain.BenchmarkReport) ([]byte, error) {
	data, err := json.MarshalIndent(NewBenchmarkArtifact(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render artifact: %w", err)
	}
	return data, nil
}

// RenderMarkdown renders the human-readable benchmark report.
func RenderMarkdown(r *domain.BenchmarkReport) string {
	var b strings.Builder
	agg := r.Aggregate

	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "# Benchmark Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	if r.DatasetPath != "" {
		fmt.Fprintf(&b, "- Dataset: `%s` (%d queries)\n", r.DatasetPath, r.DatasetSize)
	} else {
		fmt.Fprintf(&b, "- Dataset: %d queries\n", r.DatasetSize)
	}
	fmt.Fprintf(&b, "- Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "- Status: **%s**\n", status)

	fmt.Fprintf(&b, "\n## Retrieval Quality\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Precision@%d | %.3f |\n", agg.K, agg.PrecisionAtK)
	fmt.Fprintf(&b, "| MRR | %.3f |\n", agg.MRR)
	fmt.Fprintf(&b, "| nDCG@%d | %.3f |\n", agg.K, agg.NDCGAtK)

	fmt.Fprintf(&b, "\n## Answer Quality\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Faithfulness | %.3f |\n", agg.Faithfulness)
	fmt.Fprintf(&b, "| Citation correctness | %.3f |\n", agg.CitationCorrectness)
	fmt.Fprintf(&b, "| Completeness | %.3f |\n", agg.Completeness)
	fmt.Fprintf(&b, "| Next-step rate | %.3f |\n", agg.NextStepRate)

	fmt.Fprintf(&b, "\n## Confidence Calibration\n\n")
	fmt.Fprintf(&b, "- Brier score: %.3f\n- ECE: %.3f\n\n", agg.Brier, agg.ECE)
	fmt.Fprintf(&b, "| Bin | Count | Mean confidence | Accuracy |\n|---|---|---|---|\n")
	for _, bin := range agg.Bins {
		if bin.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %.1f-%.1f | %d | %.3f | %.3f |\n",
			bin.Lower, bin.Upper, bin.Count, bin.MeanConfidence, bin.Accuracy)
	}

	fmt.Fprintf(&b, "\n## Quality Gates\n\n")
	fmt.Fprintf(&b, "| Gate | Actual | Threshold | Result | Margin |\n|---|---|---|---|---|\n")
	for _, g := range r.Gates {
		result := "PASS"
		if !g.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %.3f | %s %.2f | %s | %s |\n",
			g.Name, g.Actual, g.Comparator, g.Threshold, result, g.MarginText())
	}

	fmt.Fprintf(&b, "\n## Failure Analysis\n\n")
	if len(r.Failures) == 0 {
		fmt.Fprintf(&b, "No failures classified.\n")
	} else {
		counts := make(map[domain.FailureMode]int)
		for _, f := range r.Failures {
			counts[f.Mode]++
		}
		fmt.Fprintf(&b, "| Mode | Count |\n|---|---|\n")
		for _, mode := range domain.FailureModes() {
			if counts[mode] > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", mode, counts[mode])
			}
		}
		fmt.Fprintf(&b, "\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- `%s` %s (%s): %s. Evidence: %s\n", f.QueryID, f.Mode, f.Severity, f.RootCause, f.Evidence)
		}
	}

	fmt.Fprintf(&b, "\n## Remediation Backlog\n\n")
	if len(r.Backlog) == 0 {
		fmt.Fprintf(&b, "Nothing to remediate.\n")
	}
	for i, item := range r.Backlog {
		fmt.Fprintf(&b, "%d. [%s] %s: %s (%d× %s)\n",
			i+1, item.Severity, item.Mode, item.Fix, item.Occurrences, strings.Join(item.QueryIDs, ", "))
	}

	if r.Balance != nil && len(r.Balance.Issues) > 0 {
		fmt.Fprintf(&b, "\n## Dataset Balance\n\n")
		for _, issue := range r.Balance.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}
	return b.String()
}
