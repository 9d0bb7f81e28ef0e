// Package driven defines the interfaces that core calls OUT to collaborators.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CorpusProvider: Supplies the note snapshot to index
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - KeywordSearch, SemanticSearch, GraphSearch: Retrieval backends. A missing
//     backend contributes an empty result set to hybrid fusion.
//   - Agent: Answers golden queries. Only the Benchmark Runner calls it.
//   - RunStore: Benchmark run history. Without it, runs are not persisted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
