package domain

import (
	"math"
	"sort"
)

// TermVector is a sparse TF·IDF weight vector.
// Entries are never zero or negative.
type TermVector map[string]float64

// Magnitude returns the L2 norm of the vector.
func (v TermVector) Magnitude() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two vectors.
func (v TermVector) Dot(other TermVector) float64 {
	small, large := v, other
	if len(large) < len(small) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small {
		if ow, ok := large[term]; ok {
			dot += w * ow
		}
	}
	return dot
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Missing or empty vectors yield 0.
func CosineSimilarity(a, b TermVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	magA, magB := a.Magnitude(), b.Magnitude()
	if magA == 0 || magB == 0 {
		return 0
	}
	sim := a.Dot(b) / (magA * magB)
	// Snap float drift so cosine(v, v) is exactly 1.
	if sim > 1-1e-12 {
		return 1
	}
	if sim < 0 {
		return 0
	}
	return sim
}

// TermWeight pairs a term with its weight.
type TermWeight struct {
	Term   string
	Weight float64
}

// Top returns the n highest-weighted terms, ties broken alphabetically.
func (v TermVector) Top(n int) []TermWeight {
	terms := make([]TermWeight, 0, len(v))
	for t, w := range v {
		terms = append(terms, TermWeight{Term: t, Weight: w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if n >= 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// Mean returns the centroid of the given vectors.
func Mean(vectors []TermVector) TermVector {
	centroid := TermVector{}
	if len(vectors) == 0 {
		return centroid
	}
	for _, v := range vectors {
		for t, w := range v {
			centroid[t] += w
		}
	}
	n := float64(len(vectors))
	for t := range centroid {
		centroid[t] /= n
	}
	return centroid
}
