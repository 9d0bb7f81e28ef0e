package driven

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// KeywordSearch performs exact/lexical retrieval.
type KeywordSearch interface {
	// KeywordSearch returns hits for the query. Scores are backend-relative.
	KeywordSearch(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// SemanticSearch performs meaning-based retrieval.
type SemanticSearch interface {
	// SemanticSearch returns hits for the query. Scores are backend-relative.
	SemanticSearch(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// GraphSearch performs link-graph discovery.
// This backend is optional; hybrid search treats its absence as no hits.
type GraphSearch interface {
	// GraphSearch returns hits for the query. Scores are backend-relative.
	GraphSearch(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// SnapshotPinner is implemented by backends that serve from a shared,
// rebuildable index. Pin returns a context under which every call to the
// backend reads the same index, even if it is invalidated in between.
type SnapshotPinner interface {
	Pin(ctx context.Context) (context.Context, error)
}
