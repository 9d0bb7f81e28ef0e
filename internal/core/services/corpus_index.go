package services

import (
	"math"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// CorpusIndex owns the TF·IDF vectors of one corpus snapshot.
// It is built in two passes and never partially updated.
type CorpusIndex struct {
	idf     map[string]float64
	vectors map[string]domain.TermVector
	order   []string
}

// BuildCorpusIndex builds the index over docs.
// Pass 1 counts document frequency per term; pass 2 weights term
// frequencies by the shared IDF table.
func BuildCorpusIndex(docs []domain.Document) *CorpusIndex {
	idx := &CorpusIndex{
		idf:     make(map[string]float64),
		vectors: make(map[string]domain.TermVector, len(docs)),
		order:   make([]string, 0, len(docs)),
	}

	tokens := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tokens[i] = tokenize(doc.Title + "\n" + doc.Content)
		seen := make(map[string]bool, len(tokens[i]))
		for _, term := range tokens[i] {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	n := float64(len(docs))
	for term, count := range df {
		idx.idf[term] = math.Log(1 + n/float64(count))
	}

	for i, doc := range docs {
		idx.vectors[doc.ID] = idx.weigh(tokens[i])
		idx.order = append(idx.order, doc.ID)
	}
	return idx
}

// weigh computes TF × IDF for a token list. Unknown terms are dropped.
func (idx *CorpusIndex) weigh(tokens []string) domain.TermVector {
	vec := domain.TermVector{}
	if len(tokens) == 0 {
		return vec
	}
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	total := float64(len(tokens))
	for term, c := range counts {
		idf, ok := idx.idf[term]
		if !ok || idf <= 0 {
			continue
		}
		vec[term] = float64(c) / total * idf
	}
	return vec
}

// Vector returns the vector of a document; nil if the document is unknown.
func (idx *CorpusIndex) Vector(docID string) domain.TermVector {
	return idx.vectors[docID]
}

// QueryVector vectorises free text against the corpus IDF table.
func (idx *CorpusIndex) QueryVector(text string) domain.TermVector {
	return idx.weigh(tokenize(text))
}

// IDF returns the inverse document frequency of a term (0 if unseen).
func (idx *CorpusIndex) IDF(term string) float64 {
	return idx.idf[term]
}

// Similarity returns the cosine similarity of two indexed documents.
func (idx *CorpusIndex) Similarity(a, b string) float64 {
	return domain.CosineSimilarity(idx.vectors[a], idx.vectors[b])
}

// Documents returns document ids in corpus order.
func (idx *CorpusIndex) Documents() []string {
	return idx.order
}

// Terms returns the vocabulary size.
func (idx *CorpusIndex) Terms() int {
	return len(idx.idf)
}
