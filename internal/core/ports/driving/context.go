package driving

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// ContextService exposes corpus-wide context assembly.
type ContextService interface {
	// Invalidate drops every cached index. The next call rebuilds.
	Invalidate()

	// Stats returns statistics of the (possibly rebuilt) index.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Clusters returns the semantic clusters of the corpus.
	Clusters(ctx context.Context) ([]domain.Cluster, error)

	// Score computes the relevance of docID to query, relative to an optional anchor.
	Score(ctx context.Context, query, anchorID, docID string) (domain.RelevanceScore, error)

	// Related returns up to n documents ranked by relevance to query around anchorID.
	Related(ctx context.Context, query, anchorID string, n int) ([]domain.RelevanceScore, error)

	// AssembleContext renders a token-bounded bundle around an anchor document.
	AssembleContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextBundle, error)

	// ProjectBoundaries detects tag- and folder-derived project groups.
	ProjectBoundaries(ctx context.Context) ([]domain.ProjectBoundary, error)
}
