package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/services"
)

var (
	benchJSON       bool
	benchOut        string
	benchFailOnGate bool
	benchHistoryN   int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark retrieval quality",
	Long: `Runs golden datasets through the retrieval agent and scores the
results with ranking, answer-quality and calibration metrics.`,
}

var benchRunCmd = &cobra.Command{
	Use:   "run [dataset]",
	Short: "Run a golden dataset benchmark",
	Long: `Runs every query of the dataset under bounded concurrency with a
per-query timeout, then prints the markdown report. A failing query is
recorded as a failure and never aborts the run.

Use --json for the machine-readable artifact and --out to write it to a file.`,
	Args: cobra.ExactArgs(1),
	RunE: runBenchRun,
}

var benchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent benchmark runs",
	Args:  cobra.NoArgs,
	RunE:  runBenchHistory,
}

var benchShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored benchmark report",
	Args:  cobra.ExactArgs(1),
	RunE:  runBenchShow,
}

func init() {
	benchRunCmd.Flags().BoolVar(&benchJSON, "json", false, "output the JSON artifact instead of markdown")
	benchRunCmd.Flags().StringVarP(&benchOut, "out", "o", "", "write the report to a file")
	benchRunCmd.Flags().BoolVar(&benchFailOnGate, "fail-on-gate", false, "exit non-zero when a quality gate fails")
	benchShowCmd.Flags().BoolVar(&benchJSON, "json", false, "output the JSON artifact instead of markdown")
	benchHistoryCmd.Flags().IntVarP(&benchHistoryN, "limit", "n", 10, "maximum number of runs")

	benchCmd.AddCommand(benchRunCmd)
	benchCmd.AddCommand(benchHistoryCmd)
	benchCmd.AddCommand(benchShowCmd)
	rootCmd.AddCommand(benchCmd)
}

// ErrGateFailed is returned by bench run --fail-on-gate when a gate fails.
var ErrGateFailed = errors.New("quality gates failed")

func runBenchRun(cmd *cobra.Command, args []string) error {
	if benchmarkService == nil {
		return errors.New("benchmark service not configured")
	}

	report, err := benchmarkService.Run(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	if err := writeReport(cmd, report, benchOut); err != nil {
		return err
	}

	st := newStyles(cmd.ErrOrStderr())
	cmd.PrintErrf("%s run %s: %d queries, %d failures\n",
		st.verdict(report.Passed()), report.RunID, report.DatasetSize, len(report.Failures))

	if benchFailOnGate && !report.Passed() {
		return ErrGateFailed
	}
	return nil
}

func runBenchHistory(cmd *cobra.Command, _ []string) error {
	if benchmarkService == nil {
		return errors.New("benchmark service not configured")
	}

	runs, err := benchmarkService.History(cmd.Context(), benchHistoryN)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No benchmark runs recorded.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Printf("%-36s  %-16s  %4s  %5s  %5s  %5s  %s\n", "RUN", "STARTED", "N", "P@K", "MRR", "ECE", "RESULT")
	for _, r := range runs {
		cmd.Printf("%-36s  %-16s  %4d  %5.2f  %5.2f  %5.2f  %s\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.DatasetSize,
			r.PrecisionAtK, r.MRR, r.ECE, st.verdict(r.Passed))
	}
	return nil
}

func runBenchShow(cmd *cobra.Command, args []string) error {
	if benchmarkService == nil {
		return errors.New("benchmark service not configured")
	}

	report, err := benchmarkService.Report(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no benchmark run %q", args[0])
		}
		return err
	}
	return writeReport(cmd, report, "")
}

// writeReport renders the report as markdown or JSON to stdout, or to path when set.
func writeReport(cmd *cobra.Command, report *domain.BenchmarkReport, path string) error {
	var out []byte
	if benchJSON {
		data, err := services.RenderJSON(report)
		if err != nil {
			return err
		}
		out = append(data, '\n')
	} else {
		out = []byte(services.RenderMarkdown(report))
	}

	if path == "" {
		cmd.Print(string(out))
		return nil
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	cmd.Printf("Report written to %s\n", path)
	return nil
}
