package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

var (
	classifyJSON bool
	routeJSON    bool
	routeType    string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Classify a query into an intent",
	Long: `Classifies a query as technical, project, research or maintenance
using fixed signal phrase tables, and prints the matched signals.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Show the retrieval strategy for a query",
	Long: `Classifies a query and prints the retrieval strategy and the
keyword/semantic/graph weight triple hybrid search would use.

Use --type to skip classification and route a known intent.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runRoute,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output classification as JSON")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "output decision as JSON")
	routeCmd.Flags().StringVarP(&routeType, "type", "t", "", "route a known query type instead of classifying")
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(routeCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if routerService == nil {
		return errors.New("query router not configured")
	}

	c := routerService.Classify(args[0])
	if classifyJSON {
		return printJSON(cmd, c)
	}

	cmd.Printf("Type:       %s\n", c.Type)
	cmd.Printf("Confidence: %.2f\n", c.Confidence)
	if len(c.Signals) == 0 {
		cmd.Println("Signals:    (none)")
	} else {
		cmd.Printf("Signals:    %s\n", strings.Join(c.Signals, ", "))
	}
	return nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	if routerService == nil {
		return errors.New("query router not configured")
	}

	var decision domain.RouterDecision
	switch {
	case routeType != "":
		qt, err := domain.ParseQueryType(routeType)
		if err != nil {
			return err
		}
		decision = routerService.RouteType(qt)
	case len(args) == 1:
		decision = routerService.Route(args[0])
	default:
		return errors.New("route needs a query or --type")
	}

	if routeJSON {
		return printJSON(cmd, decision)
	}

	w := decision.Weights
	cmd.Printf("Type:      %s (%.2f)\n", decision.Classification.Type, decision.Classification.Confidence)
	cmd.Printf("Strategy:  %s\n", decision.Strategy)
	cmd.Printf("Weights:   keyword %.2f, semantic %.2f, graph %.2f\n", w.Keyword, w.Semantic, w.Graph)
	cmd.Printf("Rationale: %s\n", decision.Rationale)
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
