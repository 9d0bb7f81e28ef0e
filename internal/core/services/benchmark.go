package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// Ensure BenchmarkRunner implements the interface.
var _ driving.BenchmarkService = (*BenchmarkRunner)(nil)

// BenchmarkRunner executes golden datasets against an agent under bounded
// concurrency and a per-query timeout. A failing query becomes a failure
// record; it never aborts the batch.
type BenchmarkRunner struct {
	loader        driving.DatasetService
	agent         driven.Agent
	store         driven.RunStore
	metrics       *MetricsCalculator
	analyzer      *FailureAnalyzer
	bench         domain.BenchSettings
	gates         domain.GateSettings
	limiter       *rate.Limiter
	optimizations []string
	now           func() time.Time
}

// NewBenchmarkRunner creates a benchmark runner. store may be nil, in which
// case runs are not persisted.
func NewBenchmarkRunner(
	loader driving.DatasetService,
	agent driven.Agent,
	store driven.RunStore,
	settings domain.Settings,
) *BenchmarkRunner {
	bench := settings.Bench
	if bench.Concurrency <= 0 {
		bench.Concurrency = 1
	}
	if bench.QueryTimeout <= 0 {
		bench.QueryTimeout = domain.DefaultSettings().Bench.QueryTimeout
	}

	r := &BenchmarkRunner{
		loader:   loader,
		agent:    agent,
		store:    store,
		metrics:  NewMetricsCalculator(bench.TopK),
		analyzer: NewFailureAnalyzer(bench.QueryTimeout),
		bench:    bench,
		gates:    settings.Gates,
		now:      time.Now,
	}
	if bench.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(bench.RequestsPerSecond), 1)
	}
	settings.Bench = bench
	r.optimizations = optimizationsFor(settings, r.limiter != nil)
	return r
}

// SetClock overrides the time source used for trace and run timestamps.
func (r *BenchmarkRunner) SetClock(now func() time.Time) {
	r.now = now
}

// Run loads the dataset at path and benchmarks it.
func (r *BenchmarkRunner) Run(ctx context.Context, path string) (*domain.BenchmarkReport, error) {
	ds, err := r.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("benchmark: %w", err)
	}
	return r.RunDataset(ctx, ds)
}

// RunDataset benchmarks an already loaded dataset.
func (r *BenchmarkRunner) RunDataset(ctx context.Context, ds *domain.GoldenDataset) (*domain.BenchmarkReport, error) {
	if ds == nil {
		return nil, fmt.Errorf("benchmark: %w: dataset is required", domain.ErrInvalidInput)
	}
	if r.agent == nil {
		return nil, fmt.Errorf("benchmark: %w: agent is required", domain.ErrInvalidInput)
	}

	logger.Section("Benchmark")
	logger.Info("Running %d queries (concurrency %d, timeout %s)",
		ds.Size(), r.bench.Concurrency, r.bench.QueryTimeout)

	report := &domain.BenchmarkReport{
		RunID:         uuid.NewString(),
		StartedAt:     r.now(),
		DatasetPath:   ds.Path,
		DatasetSize:   ds.Size(),
		Optimizations: r.optimizations,
	}

	report.Traces = r.execute(ctx, ds)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("benchmark: %w", err)
	}

	report.PerTrace = make([]domain.TraceMetrics, len(report.Traces))
	report.Failures = []domain.FailureInstance{}
	for i, q := range ds.Queries {
		tm := r.metrics.Evaluate(q, report.Traces[i])
		report.PerTrace[i] = tm
		if f, ok := r.analyzer.Analyze(q, report.Traces[i], tm); ok {
			logger.Debug("Query %s: %s (%s)", q.ID, f.Mode, f.Severity)
			report.Failures = append(report.Failures, f)
		}
	}

	report.Aggregate = r.metrics.Aggregate(report.PerTrace)
	report.Gates = r.evaluateGates(report.Aggregate)
	report.Backlog = BuildBacklog(report.Failures)
	balance := r.loader.Balance(ds)
	report.Balance = &balance
	report.FinishedAt = r.now()

	logger.Info("Benchmark %s: P@%d=%.3f MRR=%.3f nDCG=%.3f ECE=%.3f failures=%d passed=%t",
		report.RunID, report.Aggregate.K, report.Aggregate.PrecisionAtK, report.Aggregate.MRR,
		report.Aggregate.NDCGAtK, report.Aggregate.ECE, len(report.Failures), report.Passed())

	if r.store != nil {
		if err := r.store.SaveRun(ctx, report); err != nil {
			logger.Warn("Failed to persist benchmark run %s: %v", report.RunID, err)
		}
	}
	return report, nil
}

// History returns recent persisted run summaries.
func (r *BenchmarkRunner) History(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if r.store == nil {
		logger.Debug("Benchmark history requested without a run store")
		return []domain.RunSummary{}, nil
	}
	runs, err := r.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("benchmark history: %w", err)
	}
	return runs, nil
}

// Report returns a persisted run by id.
func (r *BenchmarkRunner) Report(ctx context.Context, runID string) (*domain.BenchmarkReport, error) {
	if r.store == nil {
		return nil, fmt.Errorf("benchmark report %s: %w", runID, domain.ErrNotFound)
	}
	report, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("benchmark report %s: %w", runID, err)
	}
	return report, nil
}

// execute runs every query and returns traces in dataset order.
func (r *BenchmarkRunner) execute(ctx context.Context, ds *domain.GoldenDataset) []domain.Trace {
	traces := make([]domain.Trace, ds.Size())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.bench.Concurrency)
	for i, q := range ds.Queries {
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					traces[i] = r.failedTrace(q, err, 0)
					return nil
				}
			}
			traces[i] = r.runOne(gctx, q)
			return nil
		})
	}
	// Goroutines never return errors; failures live in the traces.
	_ = g.Wait()
	return traces
}

type agentResult struct {
	resp domain.AgentResponse
	err  error
}

// runOne invokes the agent for one query under the per-query timeout.
// The agent runs in its own goroutine so a call that ignores ctx still
// times out, and a panic is converted into an error.
func (r *BenchmarkRunner) runOne(ctx context.Context, q domain.GoldenQuery) domain.Trace {
	qctx, cancel := context.WithTimeout(ctx, r.bench.QueryTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan agentResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- agentResult{err: fmt.Errorf("%w: %v", domain.ErrAgentPanic, p)}
			}
		}()
		resp, err := r.agent.Answer(qctx, q.Query)
		done <- agentResult{resp: resp, err: err}
	}()

	var res agentResult
	select {
	case res = <-done:
	case <-qctx.Done():
		res.err = qctx.Err()
	}
	elapsed := time.Since(start)

	if res.err != nil {
		return r.failedTrace(q, res.err, elapsed)
	}

	confidence := clamp01(res.resp.Confidence)
	t := domain.Trace{
		QueryID:         q.ID,
		Text:            res.resp.Text,
		RetrievedIDs:    res.resp.RetrievedDocuments,
		ExpectedIDs:     q.ExpectedNotes,
		Precision:       PrecisionAtK(res.resp.RetrievedDocuments, q.ExpectedNotes, r.metrics.K()),
		HasNextStep:     HasNextStep(res.resp.Text),
		Confidence:      confidence,
		ConfidenceLevel: domain.ConfidenceLevelOf(confidence),
		ExecutionTime:   elapsed,
		Timestamp:       r.now(),
	}
	if t.RetrievedIDs == nil {
		t.RetrievedIDs = []string{}
	}
	logger.Debug("Query %s: %d retrieved, P@%d=%.2f in %s",
		q.ID, len(t.RetrievedIDs), r.metrics.K(), t.Precision, elapsed.Round(time.Millisecond))
	return t
}

// failedTrace records an agent error, panic or timeout.
func (r *BenchmarkRunner) failedTrace(q domain.GoldenQuery, err error, elapsed time.Duration) domain.Trace {
	t := domain.Trace{
		QueryID:         q.ID,
		RetrievedIDs:    []string{},
		ExpectedIDs:     q.ExpectedNotes,
		ConfidenceLevel: domain.ConfidenceLow,
		ExecutionTime:   elapsed,
		Timestamp:       r.now(),
	}
	t.Precision = PrecisionAtK(t.RetrievedIDs, q.ExpectedNotes, r.metrics.K())
	if errors.Is(err, context.DeadlineExceeded) {
		t.TimedOut = true
		err = fmt.Errorf("%w after %s", domain.ErrAgentTimeout, r.bench.QueryTimeout)
	}
	t.Error = err.Error()
	logger.Warn("Query %s failed: %v", q.ID, err)
	return t
}

func (r *BenchmarkRunner) evaluateGates(agg domain.AggregateMetrics) []domain.QualityGate {
	gate := func(name string, actual, threshold float64, cmp domain.GateComparator) domain.QualityGate {
		passed := actual >= threshold
		if cmp == domain.GateAtMost {
			passed = actual <= threshold
		}
		return domain.QualityGate{Name: name, Actual: actual, Threshold: threshold, Comparator: cmp, Passed: passed}
	}
	return []domain.QualityGate{
		gate(fmt.Sprintf("Precision@%d", agg.K), agg.PrecisionAtK, r.gates.PrecisionAtK, domain.GateAtLeast),
		gate("MRR", agg.MRR, r.gates.MRR, domain.GateAtLeast),
		gate(fmt.Sprintf("nDCG@%d", agg.K), agg.NDCGAtK, r.gates.NDCGAtK, domain.GateAtLeast),
		gate("Next-step rate", agg.NextStepRate, r.gates.NextStepRate, domain.GateAtLeast),
		gate("ECE", agg.ECE, r.gates.MaxECE, domain.GateAtMost),
		gate("Brier", agg.Brier, r.gates.MaxBrier, domain.GateAtMost),
	}
}

// optimizationsFor names the retrieval and harness features a run used.
func optimizationsFor(s domain.Settings, rateLimited bool) []string {
	opts := []string{
		"query_routing",
		"hybrid_fusion",
		"rerank",
		fmt.Sprintf("bounded_concurrency=%d", s.Bench.Concurrency),
		fmt.Sprintf("query_timeout=%s", s.Bench.QueryTimeout),
	}
	if s.Search.FreshnessBoost > 0 {
		opts = append(opts, fmt.Sprintf("freshness_boost=%.2f", s.Search.FreshnessBoost))
	}
	if s.Search.AuthorityBoost > 0 {
		opts = append(opts, fmt.Sprintf("authority_boost=%.2f", s.Search.AuthorityBoost))
	}
	if rateLimited {
		opts = append(opts, fmt.Sprintf("rate_limit=%.1f/s", s.Bench.RequestsPerSecond))
	}
	return opts
}
