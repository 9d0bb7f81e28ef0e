package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

const (
	// typeVarianceTolerance is the allowed deviation from the per-type average.
	typeVarianceTolerance = 0.3

	// minNoAnswerQueries is the abstention coverage a dataset needs.
	minNoAnswerQueries = 20
)

// difficultyBand is an inclusive percentage range.
type difficultyBand struct{ low, high float64 }

// difficultyBands are the target difficulty percentages.
var difficultyBands = map[domain.Difficulty]difficultyBand{
	domain.DifficultyEasy:   {25, 40},
	domain.DifficultyMedium: {40, 55},
	domain.DifficultyHard:   {20, 30},
}

// Balance checks type and difficulty coverage of a dataset.
func (l *GoldenDatasetLoader) Balance(ds *domain.GoldenDataset) domain.BalanceReport {
	report := domain.BalanceReport{
		TypeCounts:        make(map[domain.QueryType]int),
		DifficultyPercent: make(map[domain.Difficulty]float64),
		Issues:            []string{},
	}
	for _, qt := range domain.QueryTypes() {
		report.TypeCounts[qt] = 0
	}
	for _, d := range domain.Difficulties() {
		report.DifficultyPercent[d] = 0
	}
	if ds == nil || ds.Size() == 0 {
		report.Issues = append(report.Issues, "dataset is empty")
		return report
	}

	difficulties := make(map[domain.Difficulty]int)
	for _, q := range ds.Queries {
		report.TypeCounts[q.Type]++
		difficulties[q.Difficulty]++
		if q.IsNoAnswer() {
			report.NoAnswerCount++
		}
	}

	n := float64(ds.Size())
	avg := n / float64(len(domain.QueryTypes()))
	for _, qt := range domain.QueryTypes() {
		count := report.TypeCounts[qt]
		if dev := math.Abs(float64(count) - avg); dev > typeVarianceTolerance*avg {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"type %s has %d queries, %.0f%% off the per-type average of %.1f",
				qt, count, 100*dev/avg, avg))
		}
	}

	for _, d := range domain.Difficulties() {
		pct := 100 * float64(difficulties[d]) / n
		report.DifficultyPercent[d] = pct
		band := difficultyBands[d]
		if pct < band.low || pct > band.high {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"difficulty %s is %.1f%%, target %.0f-%.0f%%", d, pct, band.low, band.high))
		}
	}

	if report.NoAnswerCount < minNoAnswerQueries {
		report.Issues = append(report.Issues, fmt.Sprintf(
			"only %d no-answer queries, need at least %d", report.NoAnswerCount, minNoAnswerQueries))
	}

	report.Balanced = len(report.Issues) == 0
	return report
}
