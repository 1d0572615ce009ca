// Package worker schedules analysis and optimization work against a task
// queue, claims records atomically, and applies the retry policy for
// transient AI failures.
package worker

import (
	"github.com/google/uuid"
)

// TaskKind selects which unit of work a task performs.
type TaskKind string

const (
	// TaskAnalyze scores a pending analysis record and, on success, chains a
	// follow-up optimization.
	TaskAnalyze TaskKind = "analyze"
	// TaskOptimizeFollowup rewrites content for an already-completed analysis
	// record using its stored metrics as prompt context.
	TaskOptimizeFollowup TaskKind = "optimize_followup"
	// TaskOptimizeDirect rewrites content for a standalone optimization record.
	TaskOptimizeDirect TaskKind = "optimize_direct"
)

// Task is one unit of queued work. Attempt starts at 1 and increments on each
// retry of the same record.
type Task struct {
	Kind     TaskKind  `json:"kind"`
	RecordID uuid.UUID `json:"record_id"`
	Attempt  int       `json:"attempt"`
}
