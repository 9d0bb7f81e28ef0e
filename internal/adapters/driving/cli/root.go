// Package cli provides the cobra command tree for sercha-notes.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

// startupHooks run once flags are parsed and verbosity is set.
var startupHooks []func()

// Services wired by the binary. Commands report "not configured" when nil.
var (
	routerService    driving.QueryRouter
	searchService    driving.SearchService
	contextService   driving.ContextService
	datasetService   driving.DatasetService
	benchmarkService driving.BenchmarkService
	settingsService  driving.SettingsService
)

// Services groups the driving ports consumed by the command tree.
type Services struct {
	Router    driving.QueryRouter
	Search    driving.SearchService
	Context   driving.ContextService
	Dataset   driving.DatasetService
	Benchmark driving.BenchmarkService
	Settings  driving.SettingsService
}

var rootCmd = &cobra.Command{
	Use:   "sercha-notes",
	Short: "Retrieval and evaluation core for a markdown notes vault",
	Long: `sercha-notes classifies questions, runs routed hybrid search over a
markdown vault, assembles token-bounded context bundles and benchmarks
retrieval quality against a golden dataset.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, hook := range startupHooks {
			hook()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	routerService = s.Router
	searchService = s.Search
	contextService = s.Context
	datasetService = s.Dataset
	benchmarkService = s.Benchmark
	settingsService = s.Settings
}

// OnStart registers fn to run before the command, after --verbose is applied.
// Wiring code uses it for messages that must honour verbosity.
func OnStart(fn func()) {
	startupHooks = append(startupHooks, fn)
}

// SetVersion sets the version reported by the version command and the MCP server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
