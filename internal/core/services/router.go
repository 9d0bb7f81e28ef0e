package services

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// Ensure QueryRouter implements the interface.
var _ driving.QueryRouter = (*QueryRouter)(nil)

const (
	// maxSignals caps the matched phrases reported for explainability.
	maxSignals = 5

	// fallbackConfidence is reported when no signal matches.
	fallbackConfidence = 0.5
)

// querySignals are the curated signal phrases per query type.
// Phrases match on word boundaries of the normalised query.
var querySignals = map[domain.QueryType][]string{
	domain.QueryTypeTechnical: {
		"how do i", "how to", "implement", "implementation", "code", "function",
		"api", "error", "bug", "debug", "authentication", "auth", "configure",
		"install", "setup", "syntax", "library", "framework", "deploy",
		"database", "react", "typescript", "python", "golang", "config",
	},
	domain.QueryTypeProject: {
		"status", "project", "projects", "progress", "milestone", "deadline",
		"roadmap", "timeline", "redesign", "sprint", "launch", "deliverable",
		"stakeholder", "next steps", "blocked", "blockers", "kickoff", "where are we",
	},
	domain.QueryTypeResearch: {
		"research", "compare", "comparison", "explore", "ideas", "related",
		"connections", "learn about", "what are", "why", "theory", "concept",
		"overview", "literature", "papers", "insights", "brainstorm", "trends",
	},
	domain.QueryTypeMaintenance: {
		"update", "fix", "cleanup", "clean up", "refactor", "outdated", "broken",
		"duplicate", "duplicates", "organize", "archive", "stale", "maintenance",
		"migrate", "deprecated", "orphan", "orphaned", "tidy", "dead links",
	},
}

// route is a fixed strategy entry.
type route struct {
	strategy  domain.StrategyID
	weights   domain.Weights
	rationale string
}

// routes maps each query type to its strategy. Every weight triple sums to 1.0.
var routes = map[domain.QueryType]route{
	domain.QueryTypeTechnical: {
		strategy:  domain.StrategySemanticFirst,
		weights:   domain.Weights{Keyword: 0.2, Semantic: 0.65, Graph: 0.15},
		rationale: "technical questions are phrased loosely; semantic similarity finds the right how-to notes",
	},
	domain.QueryTypeProject: {
		strategy:  domain.StrategyProjectContext,
		weights:   domain.Weights{Keyword: 0.35, Semantic: 0.4, Graph: 0.25},
		rationale: "project questions name the project; keyword hits plus linked status notes cover it",
	},
	domain.QueryTypeResearch: {
		strategy:  domain.StrategyGraphDiscovery,
		weights:   domain.Weights{Keyword: 0.15, Semantic: 0.45, Graph: 0.4},
		rationale: "research questions reward discovery; graph neighbours surface connected ideas",
	},
	domain.QueryTypeMaintenance: {
		strategy:  domain.StrategyKeywordExact,
		weights:   domain.Weights{Keyword: 0.6, Semantic: 0.25, Graph: 0.15},
		rationale: "maintenance targets specific notes; exact keyword matches matter most",
	},
}

// QueryRouter classifies queries by signal phrases and maps them to strategies.
// The mapping is a pure lookup; nothing is learned at query time.
type QueryRouter struct{}

// NewQueryRouter creates a new query router.
func NewQueryRouter() *QueryRouter {
	return &QueryRouter{}
}

// Classify returns the intent classification of a query.
func (r *QueryRouter) Classify(query string) domain.QueryClassification {
	normalised := normaliseQuery(query)

	scores := make(map[domain.QueryType]int, len(querySignals))
	var matched []string
	total := 0
	for _, qt := range domain.QueryTypes() {
		for _, phrase := range querySignals[qt] {
			if strings.Contains(normalised, " "+phrase+" ") {
				scores[qt]++
				total++
				matched = append(matched, phrase)
			}
		}
	}

	if total == 0 {
		logger.Debug("Router: no signals in %q, defaulting to %s", query, domain.QueryTypeTechnical)
		return domain.QueryClassification{
			Type:       domain.QueryTypeTechnical,
			Confidence: fallbackConfidence,
			Signals:    []string{},
		}
	}

	best := domain.QueryTypeTechnical
	for _, qt := range domain.QueryTypes() {
		if scores[qt] > scores[best] {
			best = qt
		}
	}

	if len(matched) > maxSignals {
		matched = matched[:maxSignals]
	}

	c := domain.QueryClassification{
		Type:       best,
		Confidence: float64(scores[best]) / float64(total),
		Signals:    matched,
	}
	logger.Debug("Router: %q -> %s (%.2f) signals=%v", query, c.Type, c.Confidence, c.Signals)
	return c
}

// Route classifies a query and returns the strategy decision.
func (r *QueryRouter) Route(query string) domain.RouterDecision {
	return decisionFor(r.Classify(query))
}

// RouteType returns the decision for a known type, skipping classification.
func (r *QueryRouter) RouteType(queryType domain.QueryType) domain.RouterDecision {
	return decisionFor(domain.QueryClassification{
		Type:       queryType,
		Confidence: 1,
		Signals:    []string{},
	})
}

func decisionFor(c domain.QueryClassification) domain.RouterDecision {
	rt, ok := routes[c.Type]
	if !ok {
		rt = routes[domain.QueryTypeTechnical]
	}
	return domain.RouterDecision{
		Classification: c,
		Strategy:       rt.strategy,
		Weights:        rt.weights,
		Rationale:      rt.rationale,
	}
}

// normaliseQuery lowercases, replaces punctuation with spaces and pads
// with single spaces so phrases can be matched on word boundaries.
func normaliseQuery(query string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return unicode.ToLower(r)
		}
		return ' '
	}, query)
	return " " + strings.Join(strings.Fields(mapped), " ") + " "
}
