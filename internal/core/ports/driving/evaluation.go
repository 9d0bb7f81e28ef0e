package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// DatasetService loads and inspects golden datasets.
type DatasetService interface {
	// Load parses and validates a dataset file. Any invalid line aborts the load.
	Load(path string) (*domain.GoldenDataset, error)

	// Parse parses and validates a dataset from r.
	Parse(r io.Reader) (*domain.GoldenDataset, error)

	// Balance checks type and difficulty coverage.
	Balance(dataset *domain.GoldenDataset) domain.BalanceReport
}

// BenchmarkService runs golden datasets against the agent.
type BenchmarkService interface {
	// Run loads the dataset at path and benchmarks it.
	Run(ctx context.Context, path string) (*domain.BenchmarkReport, error)

	// RunDataset benchmarks an already loaded dataset.
	RunDataset(ctx context.Context, dataset *domain.GoldenDataset) (*domain.BenchmarkReport, error)

	// History returns recent persisted run summaries.
	History(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Report returns a persisted run by id.
	// Returns domain.ErrNotFound if the run does not exist.
	Report(ctx context.Context, runID string) (*domain.BenchmarkReport, error)
}
