package services

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
)

// testNow is the fixed clock used across service tests.
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

// testCorpus is a small vault: two linked auth notes, a JWT note two hops
// from the OAuth note, and an unlinked garden folder.
func testCorpus() []domain.Document {
	return []domain.Document{
		{
			ID:         "auth/oauth-flow.md",
			Title:      "OAuth Flow",
			Content:    "Authentication with OAuth tokens. Refresh tokens rotate. Authentication middleware validates tokens.",
			Links:      []string{"auth/session-handling"},
			Tags:       []string{"project/auth-revamp"},
			Folder:     "auth",
			CreatedAt:  daysAgo(60),
			ModifiedAt: daysAgo(2),
		},
		{
			ID:         "auth/session-handling.md",
			Title:      "Session Handling",
			Content:    "Session cookies store authentication tokens. Middleware validates session tokens.",
			Links:      []string{"jwt-notes"},
			Tags:       []string{"project/auth-revamp"},
			Folder:     "auth",
			CreatedAt:  daysAgo(50),
			ModifiedAt: daysAgo(10),
		},
		{
			ID:         "jwt-notes.md",
			Title:      "JWT Notes",
			Content:    "JSON web tokens carry claims. Tokens are signed.",
			CreatedAt:  daysAgo(90),
			ModifiedAt: daysAgo(40),
		},
		{
			ID:         "garden/tomatoes.md",
			Title:      "Tomatoes",
			Content:    "Tomatoes need sunlight and watering. Prune tomatoes weekly.",
			Folder:     "garden",
			CreatedAt:  daysAgo(200),
			ModifiedAt: daysAgo(100),
		},
		{
			ID:         "garden/basil.md",
			Title:      "Basil",
			Content:    "Basil needs sunlight and watering near tomatoes.",
			Folder:     "garden",
			CreatedAt:  daysAgo(150),
			ModifiedAt: daysAgo(50),
		},
		{
			ID:         "garden/compost.md",
			Title:      "Compost",
			Content:    "Compost feeds tomatoes and basil with nutrients.",
			Folder:     "garden",
			CreatedAt:  daysAgo(120),
			ModifiedAt: daysAgo(60),
		},
	}
}

// countingCorpus counts how often the corpus is loaded.
type countingCorpus struct {
	docs  []domain.Document
	err   error
	calls int
}

func (c *countingCorpus) Documents(_ context.Context) ([]domain.Document, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.docs, nil
}

var _ driven.CorpusProvider = (*countingCorpus)(nil)

func newTestEngine(t *testing.T, docs []domain.Document) *ContextEngine {
	t.Helper()
	engine := NewContextEngine(&countingCorpus{docs: docs}, domain.DefaultSettings())
	engine.SetClock(func() time.Time { return testNow })
	return engine
}
