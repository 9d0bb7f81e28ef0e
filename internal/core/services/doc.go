// Package services implements the driving port interfaces.
// Services contain the retrieval and evaluation logic and orchestrate
// calls to driven ports (adapters):
//
//   - QueryRouter: intent classification and strategy weights
//   - HybridSearchService: concurrent multi-backend fusion, rerank and boosts
//   - ContextEngine: TF·IDF index, link graph, clusters, relevance, context bundles
//   - DatasetService, MetricsCalculator, FailureAnalyzer, BenchmarkRunner: the evaluation harness
//
// The benchmark batch uses golang.org/x/sync for bounded fan-out,
// golang.org/x/time for pacing and google/uuid for run ids.
package services
