package services

import (
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

const (
	// calibrationBins is the number of reliability bins used for ECE.
	calibrationBins = 10

	// correctPrecision is the precision@K at which a trace counts as correct.
	correctPrecision = 0.5
)

var (
	nextStepLine   = regexp.MustCompile(`(?im)^\s*(?:[-*>#]+\s*)?(?:\*\*)?next steps?\b`)
	nextStepPhrase = regexp.MustCompile(`(?i)\bnext steps?\s*(?:\*\*)?\s*:`)
	citationLink   = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
)

// MetricsCalculator scores traces against their golden queries.
type MetricsCalculator struct {
	k int
}

// NewMetricsCalculator creates a calculator with cut-off k. Non-positive k uses 5.
func NewMetricsCalculator(k int) *MetricsCalculator {
	if k <= 0 {
		k = domain.DefaultSettings().Bench.TopK
	}
	return &MetricsCalculator{k: k}
}

// K returns the cut-off used for Precision@K and nDCG@K.
func (m *MetricsCalculator) K() int {
	return m.k
}

// Evaluate computes the per-trace metrics for a trace against its golden query.
func (m *MetricsCalculator) Evaluate(q domain.GoldenQuery, t domain.Trace) domain.TraceMetrics {
	precision := PrecisionAtK(t.RetrievedIDs, q.ExpectedNotes, m.k)
	correct := precision >= correctPrecision
	citations := ExtractCitations(t.Text)
	hasNextStep := HasNextStep(t.Text)

	outcome := 0.0
	if correct {
		outcome = 1
	}
	return domain.TraceMetrics{
		QueryID:             q.ID,
		PrecisionAtK:        precision,
		ReciprocalRank:      ReciprocalRank(t.RetrievedIDs, q.ExpectedNotes),
		NDCGAtK:             NDCGAtK(t.RetrievedIDs, q.ExpectedNotes, m.k),
		Confidence:          t.Confidence,
		BrierComponent:      (t.Confidence - outcome) * (t.Confidence - outcome),
		Correct:             correct,
		Faithfulness:        Faithfulness(citations, t.RetrievedIDs),
		CitationCorrectness: CitationCorrectness(citations, q.ExpectedNotes),
		Completeness:        Completeness(hasNextStep, t.RetrievedIDs, q),
		HasNextStep:         hasNextStep,
	}
}

// Aggregate averages per-trace metrics and computes calibration over them.
func (m *MetricsCalculator) Aggregate(metrics []domain.TraceMetrics) domain.AggregateMetrics {
	agg := domain.AggregateMetrics{K: m.k, Count: len(metrics)}
	agg.Bins = CalibrationBins(metrics)
	if len(metrics) == 0 {
		return agg
	}

	nextSteps := 0
	for _, tm := range metrics {
		agg.PrecisionAtK += tm.PrecisionAtK
		agg.MRR += tm.ReciprocalRank
		agg.NDCGAtK += tm.NDCGAtK
		agg.Brier += tm.BrierComponent
		agg.Faithfulness += tm.Faithfulness
		agg.CitationCorrectness += tm.CitationCorrectness
		agg.Completeness += tm.Completeness
		if tm.HasNextStep {
			nextSteps++
		}
	}
	n := float64(len(metrics))
	agg.PrecisionAtK /= n
	agg.MRR /= n
	agg.NDCGAtK /= n
	agg.Brier /= n
	agg.Faithfulness /= n
	agg.CitationCorrectness /= n
	agg.Completeness /= n
	agg.NextStepRate = float64(nextSteps) / n
	agg.ECE = ExpectedCalibrationError(agg.Bins, len(metrics))
	return agg
}

// MatchesExpected reports whether a retrieved id matches an expected id:
// case-insensitive substring in either direction. Empty ids never match.
func MatchesExpected(retrieved, expected string) bool {
	r := strings.ToLower(strings.TrimSpace(retrieved))
	e := strings.ToLower(strings.TrimSpace(expected))
	if r == "" || e == "" {
		return false
	}
	return strings.Contains(r, e) || strings.Contains(e, r)
}

func matchesAny(id string, expected []string) bool {
	for _, e := range expected {
		if MatchesExpected(id, e) {
			return true
		}
	}
	return false
}

// PrecisionAtK is the share of the top-k retrieved ids that match any
// expected id. A correct abstention (nothing expected, nothing retrieved) is 1.
func PrecisionAtK(retrieved, expected []string, k int) float64 {
	if len(retrieved) == 0 && len(expected) == 0 {
		return 1
	}
	top := topK(retrieved, k)
	if len(top) == 0 {
		return 0
	}
	hits := 0
	for _, id := range top {
		if matchesAny(id, expected) {
			hits++
		}
	}
	return float64(hits) / float64(len(top))
}

// ReciprocalRank is 1/rank of the first matching retrieved id, 0 if none.
func ReciprocalRank(retrieved, expected []string) float64 {
	if len(retrieved) == 0 && len(expected) == 0 {
		return 1
	}
	for i, id := range retrieved {
		if matchesAny(id, expected) {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// NDCGAtK is binary-relevance DCG over the top-k retrieved ids normalised by
// the ideal DCG. Each expected id is credited at most once.
func NDCGAtK(retrieved, expected []string, k int) float64 {
	if len(retrieved) == 0 && len(expected) == 0 {
		return 1
	}
	ideal := len(expected)
	if ideal > k {
		ideal = k
	}
	var idcg float64
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}

	credited := make([]bool, len(expected))
	var dcg float64
	for i, id := range topK(retrieved, k) {
		for j, e := range expected {
			if !credited[j] && MatchesExpected(id, e) {
				credited[j] = true
				dcg += 1 / math.Log2(float64(i+2))
				break
			}
		}
	}
	return math.Min(dcg/idcg, 1)
}

// CalibrationBins buckets traces by stated confidence into ten equal-width bins.
func CalibrationBins(metrics []domain.TraceMetrics) []domain.CalibrationBin {
	bins := make([]domain.CalibrationBin, calibrationBins)
	correct := make([]int, calibrationBins)
	for i := range bins {
		bins[i].Lower = float64(i) / calibrationBins
		bins[i].Upper = float64(i+1) / calibrationBins
	}
	for _, tm := range metrics {
		i := binIndex(tm.Confidence)
		bins[i].Count++
		bins[i].MeanConfidence += clamp01(tm.Confidence)
		if tm.Correct {
			correct[i]++
		}
	}
	for i := range bins {
		if bins[i].Count == 0 {
			continue
		}
		bins[i].MeanConfidence /= float64(bins[i].Count)
		bins[i].Accuracy = float64(correct[i]) / float64(bins[i].Count)
	}
	return bins
}

// ExpectedCalibrationError is the count-weighted mean |accuracy − confidence| gap.
func ExpectedCalibrationError(bins []domain.CalibrationBin, total int) float64 {
	if total == 0 {
		return 0
	}
	var ece float64
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		ece += float64(b.Count) / float64(total) * math.Abs(b.Accuracy-b.MeanConfidence)
	}
	return ece
}

func binIndex(confidence float64) int {
	i := int(clamp01(confidence) * calibrationBins)
	if i >= calibrationBins {
		i = calibrationBins - 1
	}
	return i
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ExtractCitations returns the distinct wikilink and markdown link targets
// in text, in order. External URLs are not citations.
func ExtractCitations(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" || strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") || seen[target] {
			return
		}
		seen[target] = true
		out = append(out, target)
	}
	for _, m := range wikiLink.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range citationLink.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}

// HasNextStep reports whether text states a next step.
func HasNextStep(text string) bool {
	return nextStepLine.MatchString(text) || nextStepPhrase.MatchString(text)
}

// Faithfulness is the share of citations found among the retrieved ids.
// Text without citations is trivially faithful.
func Faithfulness(citations, retrieved []string) float64 {
	if len(citations) == 0 {
		return 1
	}
	found := 0
	for _, c := range citations {
		if matchesAny(c, retrieved) {
			found++
		}
	}
	return float64(found) / float64(len(citations))
}

// CitationCorrectness is the share of citations matching an expected id.
func CitationCorrectness(citations, expected []string) float64 {
	if len(citations) == 0 {
		if len(expected) == 0 {
			return 1
		}
		return 0
	}
	found := 0
	for _, c := range citations {
		if matchesAny(c, expected) {
			found++
		}
	}
	return float64(found) / float64(len(citations))
}

// Completeness averages next-step presence and evidence coverage.
func Completeness(hasNextStep bool, retrieved []string, q domain.GoldenQuery) float64 {
	nextStep := 0.0
	if hasNextStep {
		nextStep = 1
	}
	return (nextStep + EvidenceCoverage(retrieved, q)) / 2
}

// EvidenceCoverage is the share of required evidence that was retrieved.
// The requirement defaults to every expected note.
func EvidenceCoverage(retrieved []string, q domain.GoldenQuery) float64 {
	required := q.RequiredEvidenceCount
	if required <= 0 {
		required = len(q.ExpectedNotes)
	}
	if required == 0 {
		return 1
	}
	return math.Min(float64(matchedExpected(retrieved, q.ExpectedNotes))/float64(required), 1)
}

// matchedExpected counts expected ids matched by some retrieved id.
func matchedExpected(retrieved, expected []string) int {
	n := 0
	for _, e := range expected {
		for _, r := range retrieved {
			if MatchesExpected(r, e) {
				n++
				break
			}
		}
	}
	return n
}

func topK(ids []string, k int) []string {
	if k > 0 && len(ids) > k {
		return ids[:k]
	}
	return ids
}
