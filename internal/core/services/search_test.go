package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// --- Mock implementations ---

// mockKeywordSearch implements driven.KeywordSearch for testing.
type mockKeywordSearch struct {
	hits []domain.SearchResult
	err  error
}

func (m *mockKeywordSearch) KeywordSearch(_ context.Context, _ string) ([]domain.SearchResult, error) {
	return m.hits, m.err
}

// mockSemanticSearch implements driven.SemanticSearch for testing.
type mockSemanticSearch struct {
	hits []domain.SearchResult
	err  error
}

func (m *mockSemanticSearch) SemanticSearch(_ context.Context, _ string) ([]domain.SearchResult, error) {
	return m.hits, m.err
}

// mockGraphSearch implements driven.GraphSearch for testing.
type mockGraphSearch struct {
	hits []domain.SearchResult
	err  error
}

func (m *mockGraphSearch) GraphSearch(_ context.Context, _ string) ([]domain.SearchResult, error) {
	return m.hits, m.err
}

// pinnedKey marks a context pinned by pinningKeyword.
type pinnedKey struct{}

// pinningKeyword pins the context and reports hits only when called with it.
type pinningKeyword struct {
	pins int
}

func (p *pinningKeyword) Pin(ctx context.Context) (context.Context, error) {
	p.pins++
	return context.WithValue(ctx, pinnedKey{}, true), nil
}

func (p *pinningKeyword) KeywordSearch(ctx context.Context, _ string) ([]domain.SearchResult, error) {
	if ctx.Value(pinnedKey{}) == nil {
		return nil, errors.New("unpinned context")
	}
	return []domain.SearchResult{{DocumentID: "a", Score: 1}}, nil
}

func newTestSearch(kw *mockKeywordSearch, sem *mockSemanticSearch, graph *mockGraphSearch) *HybridSearchService {
	// Typed nil pointers must not reach the service as non-nil interfaces.
	svc := &HybridSearchService{
		router:   NewQueryRouter(),
		settings: domain.DefaultSettings().Search,
		now:      func() time.Time { return testNow },
	}
	if kw != nil {
		svc.keyword = kw
	}
	if sem != nil {
		svc.semantic = sem
	}
	if graph != nil {
		svc.graph = graph
	}
	return svc
}

func TestHybridSearch_FusesAcrossBackends(t *testing.T) {
	svc := newTestSearch(
		&mockKeywordSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 0.8}}},
		&mockSemanticSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 0.9}}},
		nil,
	)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 0.3, Semantic: 0.5}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.69, results[0].Score, 1e-9)
	assert.Equal(t, domain.MatchTypeHybrid, results[0].MatchType)
}

func TestHybridSearch_SingleBackendKeepsMatchType(t *testing.T) {
	svc := newTestSearch(
		&mockKeywordSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 1}}},
		&mockSemanticSearch{hits: []domain.SearchResult{{DocumentID: "b", Score: 1}}},
		&mockGraphSearch{},
	)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 0.6, Semantic: 0.4}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocumentID)
	assert.Equal(t, domain.MatchTypeKeyword, results[0].MatchType)
	assert.Equal(t, domain.MatchTypeSemantic, results[1].MatchType)
}

func TestHybridSearch_FreshnessAndAuthority(t *testing.T) {
	svc := newTestSearch(
		&mockKeywordSearch{hits: []domain.SearchResult{
			{DocumentID: "old", Score: 1, ModifiedAt: daysAgo(90)},
			{DocumentID: "fresh", Score: 1, ModifiedAt: daysAgo(5), LinkCount: 7, BacklinkCount: 5},
		}},
		nil, nil,
	)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "fresh", results[0].DocumentID)
	want := (1 + 0.1*(1-5.0/30)) * (1 + 0.15)
	assert.InDelta(t, want, results[0].Score, 1e-9)
	assert.Equal(t, "old", results[1].DocumentID)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestHybridSearch_AuthorityScalesBelowSaturation(t *testing.T) {
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "few", Score: 1, LinkCount: 5},
		{DocumentID: "some", Score: 1, LinkCount: 4, BacklinkCount: 4},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "some", results[0].DocumentID)
	assert.InDelta(t, 1+0.15*0.8, results[0].Score, 1e-9)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestHybridSearch_Rerank(t *testing.T) {
	dense := strings.Repeat("oauth ", 6)
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "notes/oauth.md", Score: 1},
		{DocumentID: "dense.md", Score: 1, Content: dense},
		{DocumentID: "plain.md", Score: 1, Content: "oauth"},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "oauth", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	scores := map[string]float64{}
	for _, r := range results {
		scores[r.DocumentID] = r.Score
	}
	assert.InDelta(t, 1.2, scores["notes/oauth.md"], 1e-9)
	assert.InDelta(t, 1.15, scores["dense.md"], 1e-9)
	assert.InDelta(t, 1.0, scores["plain.md"], 1e-9)
	assert.Equal(t, "notes/oauth.md", results[0].DocumentID)
}

func TestHybridSearch_OrderingAndCap(t *testing.T) {
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "c", Score: 0.5},
		{DocumentID: "b", Score: 0.5},
		{DocumentID: "a", Score: 0.9},
		{DocumentID: "d", Score: 0.1},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].DocumentID, results[1].DocumentID, results[2].DocumentID})
}

func TestHybridSearch_DefaultCap(t *testing.T) {
	var hits []domain.SearchResult
	for i := 0; i < 25; i++ {
		hits = append(hits, domain.SearchResult{DocumentID: string(rune('a' + i)), Score: 1})
	}
	svc := newTestSearch(&mockKeywordSearch{hits: hits}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 0)
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestHybridSearch_InvalidScoresClamped(t *testing.T) {
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "nan", Score: math.NaN()},
		{DocumentID: "neg", Score: -3},
		{DocumentID: "inf", Score: math.Inf(1)},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.Zero(t, r.Score, r.DocumentID)
	}
}

func TestHybridSearch_DuplicateHitKeepsBest(t *testing.T) {
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "a", Score: 0.2},
		{DocumentID: "a", Score: 0.7},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "zzz", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.7, results[0].Score, 1e-9)
}

func TestHybridSearch_Degradation(t *testing.T) {
	ctx := context.Background()
	w := domain.Weights{Keyword: 0.5, Semantic: 0.5}
	boom := errors.New("backend down")

	t.Run("missing graph backend", func(t *testing.T) {
		svc := newTestSearch(
			&mockKeywordSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 1}}},
			&mockSemanticSearch{},
			nil,
		)
		results, err := svc.HybridSearch(ctx, "zzz", w, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("one failing backend", func(t *testing.T) {
		svc := newTestSearch(
			&mockKeywordSearch{err: boom},
			&mockSemanticSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 1}}},
			nil,
		)
		results, err := svc.HybridSearch(ctx, "zzz", w, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	})

	t.Run("all failing backends", func(t *testing.T) {
		svc := newTestSearch(&mockKeywordSearch{err: boom}, &mockSemanticSearch{err: boom}, nil)
		_, err := svc.HybridSearch(ctx, "zzz", w, 10)
		assert.ErrorIs(t, err, domain.ErrBackendFailed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no backends", func(t *testing.T) {
		svc := newTestSearch(nil, nil, nil)
		_, err := svc.HybridSearch(ctx, "zzz", w, 10)
		assert.ErrorIs(t, err, domain.ErrNoBackends)
	})
}

func TestHybridSearch_FillsExcerpt(t *testing.T) {
	content := strings.Repeat("filler ", 100) + "the oauth token" + strings.Repeat(" filler", 100)
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "a", Score: 1, Content: content},
	}}, nil, nil)

	results, err := svc.HybridSearch(context.Background(), "oauth", domain.Weights{Keyword: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Excerpt, "oauth")
	assert.Less(t, len(results[0].Excerpt), len(content))
}

func TestHybridSearch_PinsSnapshotForFanOut(t *testing.T) {
	kw := &pinningKeyword{}
	svc := newTestSearch(nil, nil, nil)
	svc.keyword = kw

	results, err := svc.HybridSearch(context.Background(), "anything", domain.Weights{Keyword: 1}, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, kw.pins)
}

func TestHybridSearch_HighlightsExcerpt(t *testing.T) {
	svc := newTestSearch(&mockKeywordSearch{hits: []domain.SearchResult{
		{DocumentID: "a", Score: 1, Content: "Refresh the OAuth token daily."},
		{DocumentID: "b", Score: 0.5},
	}}, nil, nil)
	svc.settings.HighlightMarker = "=="

	results, err := svc.HybridSearch(context.Background(), "oauth token", domain.Weights{Keyword: 1}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Refresh the OAuth token daily.", results[0].Excerpt)
	assert.Equal(t, "Refresh the ==OAuth== ==token== daily.", results[0].Highlighted)
	assert.Empty(t, results[1].Highlighted)
}

func TestHybridSearchService_Search(t *testing.T) {
	kw := &mockKeywordSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 0.8}}}
	sem := &mockSemanticSearch{hits: []domain.SearchResult{{DocumentID: "a", Score: 0.9}}}
	svc := NewHybridSearchService(nil, kw, sem, nil, domain.DefaultSettings().Search)
	svc.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	t.Run("routed", func(t *testing.T) {
		resp, err := svc.Search(ctx, "How do I implement authentication in React?", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategySemanticFirst, resp.Decision.Strategy)
		require.Len(t, resp.Results, 1)
		assert.InDelta(t, 0.8*0.2+0.9*0.65, resp.Results[0].Score, 1e-9)
	})

	t.Run("caller weights", func(t *testing.T) {
		w := domain.Weights{Keyword: 0.3, Semantic: 0.5}
		resp, err := svc.Search(ctx, "zzz", domain.SearchOptions{Weights: &w})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyCustom, resp.Decision.Strategy)
		assert.InDelta(t, 0.69, resp.Results[0].Score, 1e-9)
	})

	t.Run("type override", func(t *testing.T) {
		resp, err := svc.Search(ctx, "zzz", domain.SearchOptions{Type: domain.QueryTypeMaintenance})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyKeywordExact, resp.Decision.Strategy)
	})

	t.Run("empty query", func(t *testing.T) {
		resp, err := svc.Search(ctx, "   ", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
	})
}

func TestHybridSearchService_Search_NoBackends(t *testing.T) {
	svc := NewHybridSearchService(NewQueryRouter(), nil, nil, nil, domain.DefaultSettings().Search)

	_, err := svc.Search(context.Background(), "anything", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNoBackends)
}

func TestHybridSearchService_LocalBackends(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))
	svc := NewHybridSearchService(nil, backends, backends, backends, domain.DefaultSettings().Search)
	svc.SetClock(func() time.Time { return testNow })

	resp, err := svc.Search(context.Background(), "How do I set up oauth authentication?", domain.SearchOptions{Limit: 3})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 3)
	assert.Equal(t, "auth/oauth-flow.md", resp.Results[0].DocumentID)
	assert.Equal(t, domain.MatchTypeHybrid, resp.Results[0].MatchType)
}
