package parse

// Severity is the categorical urgency rating of an incident.
type Severity string

const (
	// SeverityHigh means critical systems down, many users affected
	SeverityHigh Severity = "High"

	// SeverityMed means partial functionality or degraded performance
	SeverityMed Severity = "Med"

	// SeverityLow means minor issues on non-critical systems
	SeverityLow Severity = "Low"
)

// Record is a fully validated incident record. All five fields are always
// populated; a partial record is never a valid success outcome. Records are
// constructed once per request by Validate and never mutated afterwards.
type Record struct {
	Severity       Severity `json:"severity"`
	Component      string   `json:"component"`
	Timestamp      string   `json:"timestamp"`
	SuspectedCause string   `json:"suspected_cause"`
	ImpactCount    int      `json:"impact_count"`
}
