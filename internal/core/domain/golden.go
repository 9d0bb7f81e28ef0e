package domain

// Difficulty is the labelled difficulty of a golden query.
type Difficulty string

// Difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid returns true if the difficulty is recognised.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ConfidenceLevel is a coarse confidence label.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// IsValid returns true if the confidence level is recognised.
func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Value returns the numeric confidence a level stands for.
func (c ConfidenceLevel) Value() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.6
	case ConfidenceLow:
		return 0.3
	default:
		return 0
	}
}

// ConfidenceLevelOf buckets a numeric confidence.
func ConfidenceLevelOf(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.75:
		return ConfidenceHigh
	case confidence >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// SourceScope restricts where an answer may draw evidence from.
type SourceScope string

// Source scopes.
const (
	SourceScopeProject SourceScope = "project"
	SourceScopeVault   SourceScope = "vault"
	SourceScopeGlobal  SourceScope = "global"
)

// IsValid returns true if the scope is recognised.
func (s SourceScope) IsValid() bool {
	switch s {
	case SourceScopeProject, SourceScopeVault, SourceScopeGlobal:
		return true
	default:
		return false
	}
}

// GoldenQuery is one labelled benchmark case.
type GoldenQuery struct {
	ID                    string          `json:"id"`
	Query                 string          `json:"query"`
	Type                  QueryType       `json:"type"`
	Difficulty            Difficulty      `json:"difficulty"`
	ExpectedNotes         []string        `json:"expected_notes"`
	ExpectedConfidence    ConfidenceLevel `json:"expected_confidence"`
	ExpectedNextStep      string          `json:"expected_next_step"`
	ExpectedAnswerOutline []string        `json:"expected_answer_outline,omitempty"`
	RequiredEvidenceCount int             `json:"required_evidence_count,omitempty"`
	AllowedSourceScope    SourceScope     `json:"allowed_source_scope,omitempty"`
}

// IsNoAnswer reports whether the query expects the assistant to abstain.
func (q GoldenQuery) IsNoAnswer() bool {
	return q.ExpectedConfidence == ConfidenceLow && len(q.ExpectedNotes) == 0
}

// GoldenDataset is a validated set of golden queries in file order.
type GoldenDataset struct {
	// Path is where the dataset was loaded from, if any.
	Path string

	// Queries are the golden queries in file order.
	Queries []GoldenQuery
}

// Size returns the number of queries.
func (d GoldenDataset) Size() int {
	return len(d.Queries)
}

// Find returns the query with the given id.
func (d GoldenDataset) Find(id string) (GoldenQuery, bool) {
	for _, q := range d.Queries {
		if q.ID == id {
			return q, true
		}
	}
	return GoldenQuery{}, false
}
