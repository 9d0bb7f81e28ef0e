package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/services"
)

// mockSearchService returns a fixed response and records the options it was called with.
type mockSearchService struct {
	response *domain.SearchResponse
	err      error
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	bundle   *domain.ContextBundle
	related  []domain.RelevanceScore
	clusters []domain.Cluster
	projects []domain.ProjectBoundary
	stats    domain.IndexStats
	err      error
	gotReq   domain.ContextRequest
}

func (m *mockContextService) Invalidate() {}

func (m *mockContextService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockContextService) Clusters(_ context.Context) ([]domain.Cluster, error) {
	return m.clusters, m.err
}

func (m *mockContextService) Score(_ context.Context, _, _, docID string) (domain.RelevanceScore, error) {
	return domain.RelevanceScore{DocumentID: docID}, m.err
}

func (m *mockContextService) Related(_ context.Context, _, _ string, _ int) ([]domain.RelevanceScore, error) {
	return m.related, m.err
}

func (m *mockContextService) AssembleContext(_ context.Context, req domain.ContextRequest) (*domain.ContextBundle, error) {
	m.gotReq = req
	return m.bundle, m.err
}

func (m *mockContextService) ProjectBoundaries(_ context.Context) ([]domain.ProjectBoundary, error) {
	return m.projects, m.err
}

// mockBenchmarkService is a mock implementation of driving.BenchmarkService.
type mockBenchmarkService struct {
	report *domain.BenchmarkReport
	runs   []domain.RunSummary
	err    error
}

func (m *mockBenchmarkService) Run(_ context.Context, _ string) (*domain.BenchmarkReport, error) {
	return m.report, m.err
}

func (m *mockBenchmarkService) RunDataset(_ context.Context, _ *domain.GoldenDataset) (*domain.BenchmarkReport, error) {
	return m.report, m.err
}

func (m *mockBenchmarkService) History(_ context.Context, _ int) ([]domain.RunSummary, error) {
	return m.runs, m.err
}

func (m *mockBenchmarkService) Report(_ context.Context, runID string) (*domain.BenchmarkReport, error) {
	if m.report == nil || m.report.RunID != runID {
		return nil, domain.ErrNotFound
	}
	return m.report, nil
}

// testServices holds the services installed by setupTestServices.
type testServices struct {
	search    *mockSearchService
	context   *mockContextService
	benchmark *mockBenchmarkService
}

// setupTestServices installs real router, dataset and settings services
// plus mocks for the rest. The returned func restores the previous services.
func setupTestServices() (*testServices, func()) {
	old := Services{
		Router:    routerService,
		Search:    searchService,
		Context:   contextService,
		Dataset:   datasetService,
		Benchmark: benchmarkService,
		Settings:  settingsService,
	}

	ts := &testServices{
		search:    &mockSearchService{response: &domain.SearchResponse{}},
		context:   &mockContextService{},
		benchmark: &mockBenchmarkService{},
	}
	SetServices(Services{
		Router:    services.NewQueryRouter(),
		Search:    ts.search,
		Context:   ts.context,
		Dataset:   services.NewGoldenDatasetLoader(),
		Benchmark: ts.benchmark,
		Settings:  services.NewSettingsService(memory.NewConfigStore()),
	})

	return ts, func() { SetServices(old) }
}

// execute runs the root command with args and returns stdout and stderr.
// Flag values are reset afterwards so tests do not leak into each other.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
