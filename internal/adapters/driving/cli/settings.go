package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage retrieval settings",
	Long: `View and configure search, context, benchmark and quality gate settings.
Settings are stored in ~/.sercha-notes/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Set one setting by its dot key, for example:

  sercha-notes settings set vault.path ~/notes
  sercha-notes settings set bench.concurrency 8
  sercha-notes settings set context.project_tag_prefixes "client/,area/"

Run 'sercha-notes settings keys' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	vaultPath := settings.Vault.Path
	if vaultPath == "" {
		vaultPath = "(working directory)"
	}
	cmd.Println("[Vault]")
	cmd.Printf("  Path: %s\n", vaultPath)
	cmd.Println()

	s := settings.Search
	cmd.Println("[Search]")
	cmd.Printf("  Result cap: %d\n", s.ResultCap)
	cmd.Printf("  Freshness boost: %.2f within %d days\n", s.FreshnessBoost, s.FreshnessWindowDays)
	cmd.Printf("  Authority boost: %.2f\n", s.AuthorityBoost)
	cmd.Printf("  Excerpt: %d chars, highlight %q\n", s.ExcerptChars, s.HighlightMarker)
	cmd.Println()

	c := settings.Context
	cmd.Println("[Context]")
	cmd.Printf("  Cluster threshold: %.2f\n", c.ClusterThreshold)
	cmd.Printf("  Cluster size: %d to %d, at most %d clusters\n", c.MinClusterSize, c.MaxClusterSize, c.MaxClusters)
	cmd.Printf("  Token budget: %d\n", c.TokenBudget)
	cmd.Printf("  Max related: %d\n", c.MaxRelated)
	cmd.Printf("  Active window: %d days\n", c.ActiveWindowDays)
	if len(c.ProjectTagPrefixes) > 0 {
		cmd.Printf("  Extra project tag prefixes: %s\n", strings.Join(c.ProjectTagPrefixes, ", "))
	}
	cmd.Println()

	b := settings.Bench
	cmd.Println("[Bench]")
	cmd.Printf("  Concurrency: %d\n", b.Concurrency)
	cmd.Printf("  Query timeout: %s\n", b.QueryTimeout)
	if b.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f req/s\n", b.RequestsPerSecond)
	} else {
		cmd.Println("  Rate limit: none")
	}
	cmd.Printf("  Top K: %d\n", b.TopK)
	cmd.Println()

	g := settings.Gates
	cmd.Println("[Gates]")
	cmd.Printf("  Precision@K >= %.2f\n", g.PrecisionAtK)
	cmd.Printf("  MRR >= %.2f\n", g.MRR)
	cmd.Printf("  nDCG@K >= %.2f\n", g.NDCGAtK)
	cmd.Printf("  Next-step rate >= %.2f\n", g.NextStepRate)
	cmd.Printf("  ECE <= %.2f\n", g.MaxECE)
	cmd.Printf("  Brier <= %.2f\n", g.MaxBrier)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}
