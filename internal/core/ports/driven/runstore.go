package driven

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// RunStore persists benchmark runs.
// Backed by SQLite.
type RunStore interface {
	// SaveRun stores a complete benchmark report.
	SaveRun(ctx context.Context, report *domain.BenchmarkReport) error

	// GetRun retrieves a stored report by run id.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, runID string) (*domain.BenchmarkReport, error)

	// ListRuns returns the most recent run summaries, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
