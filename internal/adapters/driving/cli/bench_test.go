package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

func sampleBenchReport(passed bool) *domain.BenchmarkReport {
	return &domain.BenchmarkReport{
		RunID:       "run-1",
		StartedAt:   testNow,
		FinishedAt:  testNow.Add(1500 * time.Millisecond),
		DatasetPath: "golden.jsonl",
		DatasetSize: 2,
		Aggregate:   domain.AggregateMetrics{K: 5, Count: 2, PrecisionAtK: 0.7, MRR: 0.8},
		Gates: []domain.QualityGate{
			{Name: "precision_at_k", Actual: 0.7, Threshold: 0.6, Comparator: domain.GateAtLeast, Passed: true},
			{Name: "mrr", Actual: 0.8, Threshold: 0.5, Comparator: domain.GateAtLeast, Passed: passed},
		},
		Failures: []domain.FailureInstance{
			{QueryID: "q2", Mode: domain.FailureRetrievalMiss, Severity: domain.SeverityHigh},
		},
	}
}

func TestBenchRunCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	t.Run("prints markdown and verdict", func(t *testing.T) {
		ts.benchmark.report = sampleBenchReport(true)

		out, errOut, err := execute(t, "bench", "run", "golden.jsonl")

		require.NoError(t, err)
		assert.Contains(t, out, "# Benchmark Report")
		assert.Contains(t, out, "## Quality Gates")
		assert.Contains(t, errOut, "PASS run run-1: 2 queries, 1 failures")
	})

	t.Run("json artifact", func(t *testing.T) {
		ts.benchmark.report = sampleBenchReport(true)

		out, _, err := execute(t, "bench", "run", "--json", "golden.jsonl")

		require.NoError(t, err)
		var artifact map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &artifact))
		assert.Equal(t, "run-1", artifact["run_id"])
		assert.Contains(t, artifact, "pass_criteria")
	})

	t.Run("writes to file", func(t *testing.T) {
		ts.benchmark.report = sampleBenchReport(true)
		path := filepath.Join(t.TempDir(), "report.md")

		out, _, err := execute(t, "bench", "run", "--out", path, "golden.jsonl")

		require.NoError(t, err)
		assert.Contains(t, out, "Report written to "+path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "## Remediation Backlog")
	})

	t.Run("failed gates only fail with flag", func(t *testing.T) {
		ts.benchmark.report = sampleBenchReport(false)

		_, errOut, err := execute(t, "bench", "run", "golden.jsonl")
		require.NoError(t, err)
		assert.Contains(t, errOut, "FAIL run run-1")

		_, _, err = execute(t, "bench", "run", "--fail-on-gate", "golden.jsonl")
		assert.ErrorIs(t, err, ErrGateFailed)
	})

	t.Run("service error", func(t *testing.T) {
		ts.benchmark.report = nil
		ts.benchmark.err = domain.ErrInvalidDataset
		defer func() { ts.benchmark.err = nil }()

		_, _, err := execute(t, "bench", "run", "golden.jsonl")
		assert.ErrorIs(t, err, domain.ErrInvalidDataset)
		assert.ErrorContains(t, err, "benchmark failed")
	})
}

func TestBenchHistoryCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	t.Run("empty", func(t *testing.T) {
		out, _, err := execute(t, "bench", "history")

		require.NoError(t, err)
		assert.Contains(t, out, "No benchmark runs recorded.")
	})

	t.Run("lists runs", func(t *testing.T) {
		ts.benchmark.runs = []domain.RunSummary{
			{RunID: "run-2", StartedAt: testNow, DatasetSize: 20, PrecisionAtK: 0.75, MRR: 0.9, ECE: 0.05, Passed: true},
			{RunID: "run-1", StartedAt: testNow, DatasetSize: 20, PrecisionAtK: 0.4, Passed: false},
		}

		out, _, err := execute(t, "bench", "history")

		require.NoError(t, err)
		assert.Contains(t, out, "RUN")
		assert.Contains(t, out, "run-2")
		assert.Contains(t, out, "0.75")
		assert.Contains(t, out, "PASS")
		assert.Contains(t, out, "FAIL")
	})
}

func TestBenchShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.benchmark.report = sampleBenchReport(true)

	t.Run("known run", func(t *testing.T) {
		out, _, err := execute(t, "bench", "show", "run-1")

		require.NoError(t, err)
		assert.Contains(t, out, "- Run: `run-1`")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, _, err := execute(t, "bench", "show", "run-9")
		assert.ErrorContains(t, err, `no benchmark run "run-9"`)
	})
}
