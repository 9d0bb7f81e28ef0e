package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

var (
	searchLimit   int
	searchJSON    bool
	searchType    string
	searchWeights string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the notes vault",
	Long: `Performs routed hybrid search across the vault.
The query is classified, keyword, semantic and graph backends run in
parallel, and their scores are fused with the strategy weights before
reranking and freshness/authority boosts.

Use --weights keyword,semantic,graph to override the routed weights.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "force a query type")
	searchCmd.Flags().StringVar(&searchWeights, "weights", "", "custom keyword,semantic,graph weights")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit: searchLimit,
	}
	if searchType != "" {
		qt, err := domain.ParseQueryType(searchType)
		if err != nil {
			return err
		}
		opts.Type = qt
	}
	if searchWeights != "" {
		w, err := parseWeights(searchWeights)
		if err != nil {
			return err
		}
		opts.Weights = &w
	}

	resp, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, resp)
	}

	return outputSearchTable(cmd, resp)
}

func parseWeights(s string) (domain.Weights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return domain.Weights{}, fmt.Errorf("%w: --weights expects keyword,semantic,graph", domain.ErrInvalidInput)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return domain.Weights{}, fmt.Errorf("%w: invalid weight %q", domain.ErrInvalidInput, p)
		}
		vals[i] = v
	}
	return domain.Weights{Keyword: vals[0], Semantic: vals[1], Graph: vals[2]}, nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	st := newStyles(cmd.OutOrStdout())
	d := resp.Decision
	cmd.Println(st.Muted.Render(fmt.Sprintf("%s query, %s (keyword %.2f, semantic %.2f, graph %.2f)",
		d.Classification.Type, d.Strategy, d.Weights.Keyword, d.Weights.Semantic, d.Weights.Graph)))

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Results {
		r := resp.Results[i]
		title := r.Title
		if title == "" {
			title = r.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, st.Title.Render(title), r.Score, r.MatchType)
		if title != r.DocumentID {
			cmd.Printf("      %s\n", r.DocumentID)
		}
		excerpt := r.Highlighted
		if excerpt == "" {
			excerpt = r.Excerpt
		}
		if excerpt != "" {
			cmd.Printf("      %s\n", strings.ReplaceAll(excerpt, "\n", " "))
		}
		cmd.Println()
	}

	return nil
}
