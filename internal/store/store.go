package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/seoscout/seoscout/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// ErrInvalidTransition is returned when a status change is attempted outside
// the legal pending -> processing -> completed/failed set, including any write
// against a record that already reached a terminal status. The record is never
// mutated when this is returned.
var ErrInvalidTransition = errors.New("invalid record status transition")

// RecordKind selects which record table an operation targets.
type RecordKind string

const (
	KindAnalysis     RecordKind = "analysis"
	KindOptimization RecordKind = "optimization"
)

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateAnalysisRecord(ctx context.Context, rec *models.AnalysisRecord) error
	GetAnalysisRecord(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
	ListAnalysisRecords(ctx context.Context, filter RecordFilter) ([]*models.AnalysisRecord, int, error)

	CreateOptimizationRecord(ctx context.Context, rec *models.OptimizationRecord) error
	GetOptimizationRecord(ctx context.Context, id uuid.UUID) (*models.OptimizationRecord, error)
	ListOptimizationRecords(ctx context.Context, filter RecordFilter) ([]*models.OptimizationRecord, int, error)

	// ClaimRecord atomically transitions pending -> processing so that no two
	// workers ever process the same record. Returns ErrInvalidTransition when
	// the record is not currently pending.
	ClaimRecord(ctx context.Context, kind RecordKind, id uuid.UUID) error

	// CompleteAnalysis transitions processing -> completed and persists every
	// metric field plus the issue list in a single conditional update.
	CompleteAnalysis(ctx context.Context, id uuid.UUID, res AnalysisResults) error

	// CompleteOptimization transitions processing -> completed on an
	// optimization record with its optimized content, improvements and
	// recomputed keyword density.
	CompleteOptimization(ctx context.Context, id uuid.UUID, res OptimizationResults) error

	// AttachOptimizedContent enriches an already-completed analysis record
	// with the output of its follow-up optimization. It never changes status.
	AttachOptimizedContent(ctx context.Context, id uuid.UUID, content string, improvements []string) error

	// FailRecord transitions a non-terminal record to failed with a diagnostic
	// message. Partial metrics written earlier are left untouched. Writes
	// against terminal records return ErrInvalidTransition and change nothing.
	FailRecord(ctx context.Context, kind RecordKind, id uuid.UUID, errMsg string, processingTimeMS int64) error
}

// RecordFilter narrows and paginates list queries.
type RecordFilter struct {
	Status models.RecordStatus
	Page   int
	Limit  int
}

// AnalysisResults is everything CompleteAnalysis persists atomically.
type AnalysisResults struct {
	InputContent      string // extracted text when the record came from a URL
	SEOScore          float64
	WordCount         int
	KeywordDensity    float64
	AvgSentenceLength float64
	ReadabilityScore  float64
	Issues            []models.Issue
	ProcessingTimeMS  int64
}

// OptimizationResults is everything CompleteOptimization persists atomically.
type OptimizationResults struct {
	OptimizedContent        string
	Improvements            []string
	OptimizedKeywordDensity float64
	ProcessingTimeMS        int64
}
