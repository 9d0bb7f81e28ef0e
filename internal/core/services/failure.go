package services

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

const (
	// backlogSize caps the remediation backlog.
	backlogSize = 10

	citationGapThreshold   = 2
	miscalibrationMargin   = 0.3
	miscalibrationSevere   = 0.5
	hallucinationThreshold = 0.5
)

// failureCase is everything a rule may inspect for one trace.
type failureCase struct {
	query   domain.GoldenQuery
	trace   domain.Trace
	metrics domain.TraceMetrics
	ceiling time.Duration
}

// failureRule is one (predicate, classifier) pair of the rule chain.
type failureRule struct {
	mode     domain.FailureMode
	matches  func(c failureCase) bool
	classify func(c failureCase) domain.FailureInstance
}

// FailureAnalyzer classifies traces with an ordered rule chain.
// The first matching rule wins; no match means no failure.
type FailureAnalyzer struct {
	ceiling time.Duration
	rules   []failureRule
}

// NewFailureAnalyzer creates an analyzer with the given per-query time ceiling.
func NewFailureAnalyzer(ceiling time.Duration) *FailureAnalyzer {
	return &FailureAnalyzer{ceiling: ceiling, rules: defaultFailureRules()}
}

// Analyze classifies one trace. It returns false when no rule matches.
func (a *FailureAnalyzer) Analyze(
	q domain.GoldenQuery, t domain.Trace, m domain.TraceMetrics,
) (domain.FailureInstance, bool) {
	c := failureCase{query: q, trace: t, metrics: m, ceiling: a.ceiling}
	for _, rule := range a.rules {
		if !rule.matches(c) {
			continue
		}
		f := rule.classify(c)
		f.QueryID = q.ID
		f.Mode = rule.mode
		return f, true
	}
	return domain.FailureInstance{}, false
}

func defaultFailureRules() []failureRule {
	return []failureRule{
		{
			mode: domain.FailureTimeout,
			matches: func(c failureCase) bool {
				return c.trace.TimedOut || (c.ceiling > 0 && c.trace.ExecutionTime > c.ceiling)
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityHigh,
					RootCause:    fmt.Sprintf("agent exceeded the %s per-query ceiling", c.ceiling),
					Evidence:     fmt.Sprintf("execution time %s", c.trace.ExecutionTime.Round(time.Millisecond)),
					SuggestedFix: "Profile retrieval latency and cap tool calls per query",
				}
			},
		},
		{
			mode:    domain.FailureToolError,
			matches: func(c failureCase) bool { return c.trace.Error != "" },
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityCritical,
					RootCause:    "agent execution failed",
					Evidence:     c.trace.Error,
					SuggestedFix: "Handle tool errors inside the agent and return a degraded answer",
				}
			},
		},
		{
			mode: domain.FailureMissingNextStep,
			matches: func(c failureCase) bool {
				return strings.TrimSpace(c.query.ExpectedNextStep) != "" && !c.metrics.HasNextStep
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityMedium,
					RootCause:    "answer does not state a next step",
					Evidence:     fmt.Sprintf("expected next step: %s", c.query.ExpectedNextStep),
					SuggestedFix: "Require a 'Next step:' line in the answer template",
				}
			},
		},
		{
			mode: domain.FailureRetrievalMiss,
			matches: func(c failureCase) bool {
				return len(c.trace.RetrievedIDs) == 0 && len(c.query.ExpectedNotes) > 0
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityHigh,
					RootCause:    "no documents retrieved although documents were expected",
					Evidence:     fmt.Sprintf("expected %d: %s", len(c.query.ExpectedNotes), strings.Join(c.query.ExpectedNotes, ", ")),
					SuggestedFix: fmt.Sprintf("Review %s routing weights and keyword coverage", c.query.Type),
				}
			},
		},
		{
			mode: domain.FailureCitationMismatch,
			matches: func(c failureCase) bool {
				return citationGap(c) > citationGapThreshold
			},
			classify: func(c failureCase) domain.FailureInstance {
				gap := citationGap(c)
				severity := domain.SeverityHigh
				switch {
				case gap <= 3:
					severity = domain.SeverityLow
				case gap <= 5:
					severity = domain.SeverityMedium
				}
				return domain.FailureInstance{
					Severity:  severity,
					RootCause: "retrieved document count differs materially from expected",
					Evidence: fmt.Sprintf("retrieved %d, expected %d (gap %d)",
						len(c.trace.RetrievedIDs), len(c.query.ExpectedNotes), gap),
					SuggestedFix: "Tune the result cap and relevance cut-off",
				}
			},
		},
		{
			mode: domain.FailureMiscalibration,
			matches: func(c failureCase) bool {
				return calibrationGap(c) > miscalibrationMargin
			},
			classify: func(c failureCase) domain.FailureInstance {
				gap := calibrationGap(c)
				severity := domain.SeverityMedium
				if gap > miscalibrationSevere {
					severity = domain.SeverityHigh
				}
				return domain.FailureInstance{
					Severity:  severity,
					RootCause: "stated confidence is far from the expected confidence",
					Evidence: fmt.Sprintf("confidence %.2f, expected %s (%.2f)",
						c.trace.Confidence, c.query.ExpectedConfidence, c.query.ExpectedConfidence.Value()),
					SuggestedFix: "Derive confidence from retrieval evidence strength",
				}
			},
		},
		{
			mode: domain.FailureHallucinatedCitation,
			matches: func(c failureCase) bool {
				return c.metrics.Faithfulness < hallucinationThreshold
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityHigh,
					RootCause:    "answer cites documents that were not retrieved",
					Evidence:     fmt.Sprintf("faithfulness %.2f", c.metrics.Faithfulness),
					SuggestedFix: "Restrict citations to retrieved document ids",
				}
			},
		},
		{
			mode: domain.FailureIncompleteEvidence,
			matches: func(c failureCase) bool {
				return c.query.RequiredEvidenceCount > 0 && EvidenceCoverage(c.trace.RetrievedIDs, c.query) < 1
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:  domain.SeverityMedium,
					RootCause: "answer is backed by less evidence than required",
					Evidence: fmt.Sprintf("%d of %d required documents retrieved",
						matchedExpected(c.trace.RetrievedIDs, c.query.ExpectedNotes), c.query.RequiredEvidenceCount),
					SuggestedFix: "Widen graph expansion for multi-document questions",
				}
			},
		},
		{
			mode: domain.FailureScopeViolation,
			matches: func(c failureCase) bool {
				return len(outOfScope(c)) > 0
			},
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityMedium,
					RootCause:    "project-scoped answer drew on notes outside the project",
					Evidence:     "out of scope: " + strings.Join(outOfScope(c), ", "),
					SuggestedFix: "Filter retrieval to the detected project boundary",
				}
			},
		},
		{
			mode:    domain.FailureEmptyResponse,
			matches: func(c failureCase) bool { return strings.TrimSpace(c.trace.Text) == "" },
			classify: func(c failureCase) domain.FailureInstance {
				return domain.FailureInstance{
					Severity:     domain.SeverityHigh,
					RootCause:    "agent returned no answer text",
					Evidence:     fmt.Sprintf("%d documents retrieved", len(c.trace.RetrievedIDs)),
					SuggestedFix: "Return an explicit abstention instead of empty text",
				}
			},
		},
	}
}

func citationGap(c failureCase) int {
	gap := len(c.trace.RetrievedIDs) - len(c.query.ExpectedNotes)
	if gap < 0 {
		return -gap
	}
	return gap
}

func calibrationGap(c failureCase) float64 {
	return math.Abs(c.trace.Confidence - c.query.ExpectedConfidence.Value())
}

// outOfScope returns retrieved ids outside the folders of the expected notes
// for project-scoped queries.
func outOfScope(c failureCase) []string {
	if c.query.AllowedSourceScope != domain.SourceScopeProject {
		return nil
	}
	var folders []string
	for _, e := range c.query.ExpectedNotes {
		if dir := path.Dir(e); dir != "." && dir != "/" {
			folders = append(folders, strings.ToLower(dir)+"/")
		}
	}
	if len(folders) == 0 {
		return nil
	}
	var out []string
	for _, id := range c.trace.RetrievedIDs {
		lower := strings.ToLower(id)
		inside := false
		for _, f := range folders {
			if strings.HasPrefix(lower, f) {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, id)
		}
	}
	return out
}

// BuildBacklog sorts failures by severity, merges identical (mode, fix)
// pairs and keeps the top ten.
func BuildBacklog(failures []domain.FailureInstance) []domain.BacklogItem {
	sorted := make([]domain.FailureInstance, len(failures))
	copy(sorted, failures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Weight() > sorted[j].Severity.Weight()
	})

	type key struct {
		mode domain.FailureMode
		fix  string
	}
	index := make(map[key]int)
	var items []domain.BacklogItem
	for _, f := range sorted {
		k := key{f.Mode, f.SuggestedFix}
		if i, ok := index[k]; ok {
			items[i].Occurrences++
			items[i].QueryIDs = append(items[i].QueryIDs, f.QueryID)
			continue
		}
		index[k] = len(items)
		items = append(items, domain.BacklogItem{
			Mode:        f.Mode,
			Severity:    f.Severity,
			Fix:         f.SuggestedFix,
			Occurrences: 1,
			QueryIDs:    []string{f.QueryID},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		wi, wj := items[i].Severity.Weight(), items[j].Severity.Weight()
		if wi != wj {
			return wi > wj
		}
		return items[i].Occurrences > items[j].Occurrences
	})
	if len(items) > backlogSize {
		items = items[:backlogSize]
	}
	return items
}
