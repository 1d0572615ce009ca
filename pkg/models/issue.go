package models

// Severity classifies how badly an issue hurts the overall SEO score.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Issue is one detected SEO problem. Code is stable across releases so that
// clients and tests can match on it; Message and Suggestion are display text.
type Issue struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}
