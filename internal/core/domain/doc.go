// Package domain defines the core entities of the sercha-notes retrieval core.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document: one indexed note snapshot
//   - TermVector: sparse TF·IDF weights
//   - Cluster / ProjectBoundary: derived corpus views
//   - QueryClassification / RouterDecision: query routing output
//   - SearchResult: one retrieval hit
//   - GoldenQuery / Trace / FailureInstance: evaluation records
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
