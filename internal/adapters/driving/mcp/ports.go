package mcp

import (
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides routed hybrid search.
	Search driving.SearchService

	// Router classifies queries. Optional.
	Router driving.QueryRouter

	// Context assembles context bundles and exposes clusters. Optional.
	Context driving.ContextService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
