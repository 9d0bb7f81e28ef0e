package domain

// FailureMode classifies why a benchmark trace failed.
type FailureMode string

// Failure modes, listed in rule-chain priority order.
const (
	FailureTimeout              FailureMode = "timeout"
	FailureToolError            FailureMode = "tool_error"
	FailureMissingNextStep      FailureMode = "missing_next_step"
	FailureRetrievalMiss        FailureMode = "retrieval_miss"
	FailureCitationMismatch     FailureMode = "citation_mismatch"
	FailureMiscalibration       FailureMode = "miscalibration"
	FailureHallucinatedCitation FailureMode = "hallucinated_citation"
	FailureIncompleteEvidence   FailureMode = "incomplete_evidence"
	FailureScopeViolation       FailureMode = "scope_violation"
	FailureEmptyResponse        FailureMode = "empty_response"
)

// FailureModes lists every failure mode in priority order.
func FailureModes() []FailureMode {
	return []FailureMode{
		FailureTimeout,
		FailureToolError,
		FailureMissingNextStep,
		FailureRetrievalMiss,
		FailureCitationMismatch,
		FailureMiscalibration,
		FailureHallucinatedCitation,
		FailureIncompleteEvidence,
		FailureScopeViolation,
		FailureEmptyResponse,
	}
}

// IsValid returns true if the failure mode is recognised.
func (m FailureMode) IsValid() bool {
	for _, known := range FailureModes() {
		if m == known {
			return true
		}
	}
	return false
}

// Severity ranks how bad a failure is.
type Severity string

// Severities.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the backlog sort weight (critical=4 ... low=1).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// FailureInstance is one classified failure.
type FailureInstance struct {
	QueryID      string      `json:"query_id"`
	Mode         FailureMode `json:"mode"`
	Severity     Severity    `json:"severity"`
	RootCause    string      `json:"root_cause"`
	Evidence     string      `json:"evidence"`
	SuggestedFix string      `json:"suggested_fix"`
}

// BacklogItem is one de-duplicated remediation task.
type BacklogItem struct {
	Mode        FailureMode `json:"mode"`
	Severity    Severity    `json:"severity"`
	Fix         string      `json:"fix"`
	Occurrences int         `json:"occurrences"`
	QueryIDs    []string    `json:"query_ids"`
}
