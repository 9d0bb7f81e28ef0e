package driven

import (
	"context"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

// Agent answers a query. The Benchmark Runner is its only caller.
// Implementations must honour ctx cancellation; the runner enforces a
// per-query timeout through it.
type Agent interface {
	Answer(ctx context.Context, query string) (domain.AgentResponse, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, query string) (domain.AgentResponse, error)

// Answer calls f(ctx, query).
func (f AgentFunc) Answer(ctx context.Context, query string) (domain.AgentResponse, error) {
	return f(ctx, query)
}
