package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

var (
	contextQuery  string
	contextBudget int
	contextJSON   bool

	relatedQuery string
	relatedLimit int

	clustersJSON bool

	projectsJSON   bool
	projectsActive bool
)

var contextCmd = &cobra.Command{
	Use:   "context [anchor]",
	Short: "Assemble a context bundle around a note",
	Long: `Renders the anchor note in full, then appends excerpts of the most
relevant related notes until the token budget is reached.

The anchor is the note id, its vault-relative path (e.g. dev/oauth-flow.md).`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

var relatedCmd = &cobra.Command{
	Use:   "related [anchor]",
	Short: "List notes related to an anchor",
	Long: `Ranks notes by combined semantic, recency and link-proximity
relevance to the anchor. Without --query only recency and link
proximity contribute.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List semantic clusters of the vault",
	Args:  cobra.NoArgs,
	RunE:  runClusters,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List tag- and folder-derived projects",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	contextCmd.Flags().StringVarP(&contextQuery, "query", "q", "", "query used to rank related notes")
	contextCmd.Flags().IntVarP(&contextBudget, "budget", "b", 0, "token budget (default from settings)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output bundle as JSON")
	relatedCmd.Flags().StringVarP(&relatedQuery, "query", "q", "", "query used to rank related notes")
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 10, "maximum number of notes")
	clustersCmd.Flags().BoolVar(&clustersJSON, "json", false, "output clusters as JSON")
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "output projects as JSON")
	projectsCmd.Flags().BoolVar(&projectsActive, "active", false, "only show recently active projects")

	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(statsCmd)
}

func requireContextService() error {
	if contextService == nil {
		return errors.New("context service not configured")
	}
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	if err := requireContextService(); err != nil {
		return err
	}

	bundle, err := contextService.AssembleContext(cmd.Context(), domain.ContextRequest{
		AnchorID:    args[0],
		Query:       contextQuery,
		TokenBudget: contextBudget,
	})
	if err != nil {
		return err
	}

	if contextJSON {
		return printJSON(cmd, bundle)
	}

	cmd.Print(bundle.Text)
	if !strings.HasSuffix(bundle.Text, "\n") {
		cmd.Println()
	}
	st := newStyles(cmd.OutOrStdout())
	summary := fmt.Sprintf("%d notes, %d/%d tokens", len(bundle.Items), bundle.TokensUsed, bundle.TokenBudget)
	if bundle.Truncated {
		summary += ", truncated"
	}
	cmd.Println(st.Muted.Render(summary))
	return nil
}

func runRelated(cmd *cobra.Command, args []string) error {
	if err := requireContextService(); err != nil {
		return err
	}

	scores, err := contextService.Related(cmd.Context(), relatedQuery, args[0], relatedLimit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		cmd.Println("No related notes.")
		return nil
	}

	for i, s := range scores {
		cmd.Printf("  [%d] %s (%.1f: semantic %.1f, recency %.1f, link %.1f)\n",
			i+1, s.DocumentID, s.Total, s.Semantic, s.Recency, s.Link)
	}
	return nil
}

func runClusters(cmd *cobra.Command, _ []string) error {
	if err := requireContextService(); err != nil {
		return err
	}

	clusters, err := contextService.Clusters(cmd.Context())
	if err != nil {
		return err
	}

	if clustersJSON {
		return printJSON(cmd, clusters)
	}
	if len(clusters) == 0 {
		cmd.Println("No clusters found.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for _, c := range clusters {
		cmd.Printf("%s  %s (%d notes)\n", st.Title.Render(c.ID), c.Theme, c.Size())
		if len(c.Keywords) > 0 {
			cmd.Printf("  keywords: %s\n", strings.Join(c.Keywords, ", "))
		}
		for _, m := range c.Members {
			cmd.Printf("  - %s\n", m)
		}
		cmd.Println()
	}
	return nil
}

func runProjects(cmd *cobra.Command, _ []string) error {
	if err := requireContextService(); err != nil {
		return err
	}

	projects, err := contextService.ProjectBoundaries(cmd.Context())
	if err != nil {
		return err
	}
	if projectsActive {
		active := projects[:0:0]
		for _, p := range projects {
			if p.Active {
				active = append(active, p)
			}
		}
		projects = active
	}

	if projectsJSON {
		return printJSON(cmd, projects)
	}
	if len(projects) == 0 {
		cmd.Println("No projects found.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for _, p := range projects {
		state := st.Muted.Render("dormant")
		if p.Active {
			state = st.Pass.Render("active")
		}
		cmd.Printf("%s [%s] %s, %d notes, last modified %s\n",
			st.Title.Render(p.Name), p.Kind, state, len(p.Members), p.LastModifiedAt.Format("2006-01-02"))
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireContextService(); err != nil {
		return err
	}

	stats, err := contextService.Stats(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Documents: %d\n", stats.Documents)
	cmd.Printf("Terms:     %d\n", stats.Terms)
	cmd.Printf("Links:     %d\n", stats.Edges)
	cmd.Printf("Clusters:  %d\n", stats.Clusters)
	return nil
}
