// Package models contains shared data models used across the SEOScout codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the lifecycle state of an analysis or optimization record.
type RecordStatus string

const (
	StatusPending    RecordStatus = "pending"
	StatusProcessing RecordStatus = "processing"
	StatusCompleted  RecordStatus = "completed"
	StatusFailed     RecordStatus = "failed"
)

// validTransitions is the complete set of legal forward transitions.
// completed and failed are terminal; nothing leaves them.
var validTransitions = map[RecordStatus][]RecordStatus{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to RecordStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a record in this status may never be mutated again.
func (s RecordStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BaseRecord holds the fields shared by both record kinds. The API returns a
// record id on POST; the client polls GET until status is completed or failed.
type BaseRecord struct {
	ID                    uuid.UUID    `db:"id"                     json:"id"`
	Status                RecordStatus `db:"status"                 json:"status"`
	TargetKeyword         string       `db:"target_keyword"         json:"target_keyword"`
	InputContent          string       `db:"input_content"          json:"input_content"`
	OptimizedContent      *string      `db:"optimized_content"      json:"optimized_content,omitempty"`
	OptimizedImprovements []string     `db:"optimized_improvements" json:"optimized_improvements,omitempty"`
	ErrorMessage          *string      `db:"error_message"          json:"error_message,omitempty"`
	ProcessingTimeMS      *int64       `db:"processing_time_ms"     json:"processing_time_ms,omitempty"`
	CreatedAt             time.Time    `db:"created_at"             json:"created_at"`
	CompletedAt           *time.Time   `db:"completed_at"           json:"completed_at,omitempty"`
	UpdatedAt             time.Time    `db:"updated_at"             json:"updated_at"`
}

// AnalysisRecord tracks one SEO analysis unit of work. Exactly one of InputURL
// and InputContent is set at creation; when a URL is given, InputContent is
// filled with the extracted text before scoring. All metric fields populate
// together in a single update, never piecemeal.
type AnalysisRecord struct {
	BaseRecord

	InputURL          *string  `db:"input_url"           json:"input_url,omitempty"`
	SEOScore          *float64 `db:"seo_score"           json:"seo_score,omitempty"`
	WordCount         *int     `db:"word_count"          json:"word_count,omitempty"`
	KeywordDensity    *float64 `db:"keyword_density"     json:"keyword_density,omitempty"`
	AvgSentenceLength *float64 `db:"avg_sentence_length" json:"avg_sentence_length,omitempty"`
	ReadabilityScore  *float64 `db:"readability_score"   json:"readability_score,omitempty"`
	Issues            []Issue  `db:"issues"              json:"issues"`
}

// OptimizationRecord tracks one direct content optimization unit of work.
type OptimizationRecord struct {
	BaseRecord

	TargetLength            int      `db:"target_length"             json:"target_length"`
	Tone                    string   `db:"tone"                      json:"tone"`
	OptimizedKeywordDensity *float64 `db:"optimized_keyword_density" json:"optimized_keyword_density,omitempty"`
}
