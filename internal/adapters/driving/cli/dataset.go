package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

var datasetJSON bool

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect golden datasets",
	Long: `Commands for golden datasets: JSON Lines files with one labelled
query per line (id, query, type, difficulty, expected_notes,
expected_confidence, expected_next_step).`,
}

var datasetValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a golden dataset",
	Long:  `Parses every line and reports the first invalid one with its line number.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetValidate,
}

var datasetBalanceCmd = &cobra.Command{
	Use:   "balance [file]",
	Short: "Check query type and difficulty coverage",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetBalance,
}

func init() {
	datasetBalanceCmd.Flags().BoolVar(&datasetJSON, "json", false, "output balance report as JSON")
	datasetCmd.AddCommand(datasetValidateCmd)
	datasetCmd.AddCommand(datasetBalanceCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetValidate(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	ds, err := datasetService.Load(args[0])
	if err != nil {
		return err
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Printf("%s %s: %d queries\n", st.Pass.Render("OK"), ds.Path, ds.Size())
	return nil
}

func runDatasetBalance(cmd *cobra.Command, args []string) error {
	if datasetService == nil {
		return errors.New("dataset service not configured")
	}

	ds, err := datasetService.Load(args[0])
	if err != nil {
		return err
	}
	report := datasetService.Balance(ds)

	if datasetJSON {
		return printJSON(cmd, report)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Printf("Dataset: %s (%d queries)\n", ds.Path, ds.Size())
	cmd.Println()
	cmd.Println("Types:")
	for _, qt := range domain.QueryTypes() {
		cmd.Printf("  %-12s %d\n", qt, report.TypeCounts[qt])
	}
	cmd.Println("Difficulty:")
	for _, d := range domain.Difficulties() {
		cmd.Printf("  %-12s %.0f%%\n", d, report.DifficultyPercent[d])
	}
	cmd.Printf("No-answer queries: %d\n", report.NoAnswerCount)
	cmd.Println()

	if report.Balanced {
		cmd.Println(st.Pass.Render("Balanced"))
		return nil
	}
	issues := append([]string(nil), report.Issues...)
	sort.Strings(issues)
	cmd.Println(st.Warning.Render("Unbalanced:"))
	for _, issue := range issues {
		cmd.Printf("  - %s\n", issue)
	}
	return nil
}
