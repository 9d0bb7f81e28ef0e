package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
)

// Ensure LocalBackends implements the retrieval interfaces.
var (
	_ driven.KeywordSearch  = (*LocalBackends)(nil)
	_ driven.SemanticSearch = (*LocalBackends)(nil)
	_ driven.GraphSearch    = (*LocalBackends)(nil)
	_ driven.SnapshotPinner = (*LocalBackends)(nil)
)

const (
	// backendHitCap bounds each local backend's result list.
	backendHitCap = 50

	// graphSeeds is the number of lexical/semantic seeds expanded over links.
	graphSeeds = 5
)

// LocalBackends serves keyword, semantic and graph retrieval in-process
// from the Context Engine's index snapshot.
type LocalBackends struct {
	engine *ContextEngine
}

// NewLocalBackends creates local retrieval backends over a context engine.
func NewLocalBackends(engine *ContextEngine) *LocalBackends {
	return &LocalBackends{engine: engine}
}

// Pin fixes the index snapshot for every backend call made with the returned context.
func (b *LocalBackends) Pin(ctx context.Context) (context.Context, error) {
	return b.engine.Pin(ctx)
}

// KeywordSearch scores documents by the share of query terms they contain.
func (b *LocalBackends) KeywordSearch(ctx context.Context, query string) ([]domain.SearchResult, error) {
	snap, err := b.engine.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return capHits(keywordHits(snap, query)), nil
}

// SemanticSearch scores documents by TF·IDF cosine similarity to the query.
func (b *LocalBackends) SemanticSearch(ctx context.Context, query string) ([]domain.SearchResult, error) {
	snap, err := b.engine.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return capHits(semanticHits(snap, query)), nil
}

// GraphSearch expands the best keyword and semantic seeds over the link
// graph. A neighbour at h hops scores seed/(1+h); the best path wins.
func (b *LocalBackends) GraphSearch(ctx context.Context, query string) ([]domain.SearchResult, error) {
	snap, err := b.engine.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph search: %w", err)
	}

	seeds := make(map[string]float64)
	for _, hits := range [][]domain.SearchResult{keywordHits(snap, query), semanticHits(snap, query)} {
		for i, h := range hits {
			if i >= graphSeeds {
				break
			}
			if h.Score > seeds[h.DocumentID] {
				seeds[h.DocumentID] = h.Score
			}
		}
	}

	best := make(map[string]float64)
	for seed, seedScore := range seeds {
		for id, hops := range snap.graph.Within(seed, maxLinkHops) {
			if hops == 0 {
				continue
			}
			if s := seedScore / float64(1+hops); s > best[id] {
				best[id] = s
			}
		}
	}

	hits := make([]domain.SearchResult, 0, len(best))
	for id, score := range best {
		doc, ok := snap.document(id)
		if !ok {
			continue
		}
		hits = append(hits, hitFor(snap, doc, score, domain.MatchTypeGraph))
	}
	sortHits(hits)
	return capHits(hits), nil
}

func keywordHits(snap *snapshot, query string) []domain.SearchResult {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}
	var hits []domain.SearchResult
	for _, doc := range snap.docs {
		text := strings.ToLower(doc.Title + "\n" + doc.ID + "\n" + doc.Content)
		matched := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(terms))
		hits = append(hits, hitFor(snap, doc, score, domain.MatchTypeKeyword))
	}
	sortHits(hits)
	return hits
}

func semanticHits(snap *snapshot, query string) []domain.SearchResult {
	queryVec := snap.index.QueryVector(query)
	if len(queryVec) == 0 {
		return nil
	}
	var hits []domain.SearchResult
	for _, doc := range snap.docs {
		score := domain.CosineSimilarity(queryVec, snap.index.Vector(doc.ID))
		if score <= 0 {
			continue
		}
		hits = append(hits, hitFor(snap, doc, score, domain.MatchTypeSemantic))
	}
	sortHits(hits)
	return hits
}

func hitFor(snap *snapshot, doc domain.Document, score float64, kind domain.MatchType) domain.SearchResult {
	return domain.SearchResult{
		DocumentID:    doc.ID,
		Title:         doc.DisplayTitle(),
		Content:       doc.Content,
		Score:         score,
		MatchType:     kind,
		ModifiedAt:    doc.ModifiedAt,
		LinkCount:     snap.graph.LinkCount(doc.ID),
		BacklinkCount: snap.graph.BacklinkCount(doc.ID),
	}
}

func sortHits(hits []domain.SearchResult) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})
}

func capHits(hits []domain.SearchResult) []domain.SearchResult {
	if len(hits) > backendHitCap {
		return hits[:backendHitCap]
	}
	return hits
}
