package driven

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// CorpusProvider supplies the documents of one corpus snapshot.
// Implementations must return documents in a stable order; clustering
// walks this order.
type CorpusProvider interface {
	// Documents returns every document in the corpus.
	Documents(ctx context.Context) ([]domain.Document, error)
}

// CorpusProviderFunc adapts a function to CorpusProvider.
type CorpusProviderFunc func(ctx context.Context) ([]domain.Document, error)

// Documents calls f(ctx).
func (f CorpusProviderFunc) Documents(ctx context.Context) ([]domain.Document, error) {
	return f(ctx)
}
