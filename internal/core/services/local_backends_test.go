package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

func TestLocalBackends_KeywordSearch(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))

	hits, err := backends.KeywordSearch(context.Background(), "authentication oauth")
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	top := hits[0]
	assert.Equal(t, "auth/oauth-flow.md", top.DocumentID)
	assert.Equal(t, 1.0, top.Score)
	assert.Equal(t, domain.MatchTypeKeyword, top.MatchType)
	assert.Equal(t, 1, top.LinkCount)
	assert.Equal(t, daysAgo(2), top.ModifiedAt)

	require.Len(t, hits, 2)
	assert.Equal(t, "auth/session-handling.md", hits[1].DocumentID)
	assert.Equal(t, 0.5, hits[1].Score)
	assert.Equal(t, 1, hits[1].BacklinkCount)
}

func TestLocalBackends_PinKeepsSnapshotAcrossInvalidate(t *testing.T) {
	corpus := &countingCorpus{docs: []domain.Document{{ID: "old.md", Content: "compost heap notes"}}}
	engine := NewContextEngine(corpus, domain.DefaultSettings())
	backends := NewLocalBackends(engine)

	pinned, err := backends.Pin(context.Background())
	require.NoError(t, err)

	corpus.docs = []domain.Document{{ID: "new.md", Content: "compost bin notes"}}
	engine.Invalidate()

	hits, err := backends.KeywordSearch(pinned, "compost")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "old.md", hits[0].DocumentID)

	hits, err = backends.SemanticSearch(pinned, "compost")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "old.md", hits[0].DocumentID)

	hits, err = backends.KeywordSearch(context.Background(), "compost")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new.md", hits[0].DocumentID)

	again, err := backends.Pin(pinned)
	require.NoError(t, err)
	assert.Equal(t, pinned, again)
	assert.Equal(t, 2, corpus.calls)
}

func TestLocalBackends_PinError(t *testing.T) {
	backends := NewLocalBackends(NewContextEngine(&countingCorpus{err: errors.New("vault gone")}, domain.DefaultSettings()))

	_, err := backends.Pin(context.Background())
	assert.ErrorContains(t, err, "vault gone")
}

func TestLocalBackends_KeywordSearch_NoTerms(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))

	hits, err := backends.KeywordSearch(context.Background(), "a b")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLocalBackends_SemanticSearch(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))

	hits, err := backends.SemanticSearch(context.Background(), "sunlight watering")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, domain.MatchTypeSemantic, h.MatchType)
		assert.Positive(t, h.Score)
		assert.LessOrEqual(t, h.Score, 1.0)
	}
	ids := []string{hits[0].DocumentID, hits[1].DocumentID}
	assert.ElementsMatch(t, []string{"garden/tomatoes.md", "garden/basil.md"}, ids)
}

func TestLocalBackends_GraphSearch(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))

	hits, err := backends.GraphSearch(context.Background(), "oauth")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "auth/session-handling.md", hits[0].DocumentID)
	assert.InDelta(t, 0.5, hits[0].Score, 1e-9)
	assert.Equal(t, "jwt-notes.md", hits[1].DocumentID)
	assert.InDelta(t, 1.0/3, hits[1].Score, 1e-9)
	assert.Equal(t, domain.MatchTypeGraph, hits[0].MatchType)
}

func TestLocalBackends_GraphSearch_UnlinkedSeeds(t *testing.T) {
	backends := NewLocalBackends(newTestEngine(t, testCorpus()))

	hits, err := backends.GraphSearch(context.Background(), "compost")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLocalBackends_CorpusError(t *testing.T) {
	engine := NewContextEngine(&countingCorpus{err: errors.New("boom")}, domain.DefaultSettings())
	backends := NewLocalBackends(engine)
	ctx := context.Background()

	_, err := backends.KeywordSearch(ctx, "x")
	assert.Error(t, err)
	_, err = backends.SemanticSearch(ctx, "x")
	assert.Error(t, err)
	_, err = backends.GraphSearch(ctx, "x")
	assert.Error(t, err)
}
