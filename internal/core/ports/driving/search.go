package driving

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// SearchService provides routed hybrid search to external actors.
type SearchService interface {
	// Search routes the query, fans out to the retrieval backends and fuses the hits.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
