package driving

import "github.com/custodia-labs/sercha-notes/internal/core/domain"

// QueryRouter classifies queries and maps them to retrieval strategies.
type QueryRouter interface {
	// Classify returns the intent classification of a query.
	Classify(query string) domain.QueryClassification

	// Route classifies a query and returns the strategy decision.
	Route(query string) domain.RouterDecision

	// RouteType returns the decision for a known type, skipping classification.
	RouteType(queryType domain.QueryType) domain.RouterDecision
}
