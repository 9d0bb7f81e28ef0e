package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusProvider = (*CorpusStore)(nil)

// CorpusStore is an in-memory corpus. Documents are returned sorted by ID.
type CorpusStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewCorpusStore creates a corpus store holding docs.
// Later duplicates of an ID replace earlier ones.
func NewCorpusStore(docs ...domain.Document) *CorpusStore {
	s := &CorpusStore{documents: make(map[string]domain.Document, len(docs))}
	for _, d := range docs {
		s.documents[d.ID] = d
	}
	return s
}

// Put stores or replaces a document.
func (s *CorpusStore) Put(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// Delete removes a document by ID.
func (s *CorpusStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// Get retrieves a document by ID.
func (s *CorpusStore) Get(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

// Len returns the number of stored documents.
func (s *CorpusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Documents returns a snapshot of all documents ordered by ID.
func (s *CorpusStore) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
