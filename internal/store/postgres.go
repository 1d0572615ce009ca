package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seoscout/seoscout/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func tableFor(kind RecordKind) string {
	if kind == KindOptimization {
		return "optimization_records"
	}
	return "analysis_records"
}

// --- Analysis records ---

const analysisColumns = `id, status, target_keyword, input_url, input_content, optimized_content,
	optimized_improvements, error_message, seo_score, word_count, keyword_density,
	avg_sentence_length, readability_score, issues, processing_time_ms, created_at, completed_at, updated_at`

func (s *PostgresStore) CreateAnalysisRecord(ctx context.Context, rec *models.AnalysisRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_records (id, status, target_keyword, input_url, input_content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Status, rec.TargetKeyword, rec.InputURL, rec.InputContent, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create analysis record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysisRecord(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analysis_records WHERE id = $1`, id)
	rec, err := scanAnalysisRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListAnalysisRecords(ctx context.Context, filter RecordFilter) ([]*models.AnalysisRecord, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analysis records: %w", err)
	}

	limit, offset := normalizePagination(filter)
	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM analysis_records%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		analysisColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysisRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// --- Optimization records ---

const optimizationColumns = `id, status, target_keyword, input_content, optimized_content,
	optimized_improvements, error_message, target_length, tone, optimized_keyword_density,
	processing_time_ms, created_at, completed_at, updated_at`

func (s *PostgresStore) CreateOptimizationRecord(ctx context.Context, rec *models.OptimizationRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO optimization_records (id, status, target_keyword, input_content, target_length, tone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Status, rec.TargetKeyword, rec.InputContent, rec.TargetLength, rec.Tone,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create optimization record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOptimizationRecord(ctx context.Context, id uuid.UUID) (*models.OptimizationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+optimizationColumns+` FROM optimization_records WHERE id = $1`, id)
	rec, err := scanOptimizationRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get optimization record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListOptimizationRecords(ctx context.Context, filter RecordFilter) ([]*models.OptimizationRecord, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM optimization_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count optimization records: %w", err)
	}

	limit, offset := normalizePagination(filter)
	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM optimization_records%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		optimizationColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list optimization records: %w", err)
	}
	defer rows.Close()

	var records []*models.OptimizationRecord
	for rows.Next() {
		rec, err := scanOptimizationRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan optimization record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// --- State machine operations ---

// All status writes are conditional on the current status so that a record in
// a terminal state can never be overwritten by in-flight work.

func (s *PostgresStore) ClaimRecord(ctx context.Context, kind RecordKind, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		tableFor(kind)), id, models.StatusProcessing, models.StatusPending)
	if err != nil {
		return fmt.Errorf("claim record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, kind, id, models.StatusProcessing)
	}
	return nil
}

func (s *PostgresStore) CompleteAnalysis(ctx context.Context, id uuid.UUID, res AnalysisResults) error {
	issuesJSON, err := json.Marshal(res.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_records SET
			status = $2, input_content = $3, seo_score = $4, word_count = $5,
			keyword_density = $6, avg_sentence_length = $7, readability_score = $8,
			issues = $9, processing_time_ms = $10, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $11`,
		id, models.StatusCompleted, res.InputContent, res.SEOScore, res.WordCount,
		res.KeywordDensity, res.AvgSentenceLength, res.ReadabilityScore,
		issuesJSON, res.ProcessingTimeMS, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, KindAnalysis, id, models.StatusCompleted)
	}
	return nil
}

func (s *PostgresStore) CompleteOptimization(ctx context.Context, id uuid.UUID, res OptimizationResults) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE optimization_records SET
			status = $2, optimized_content = $3, optimized_improvements = $4,
			optimized_keyword_density = $5, processing_time_ms = $6,
			completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $7`,
		id, models.StatusCompleted, res.OptimizedContent, res.Improvements,
		res.OptimizedKeywordDensity, res.ProcessingTimeMS, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("complete optimization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, KindOptimization, id, models.StatusCompleted)
	}
	return nil
}

func (s *PostgresStore) AttachOptimizedContent(ctx context.Context, id uuid.UUID, content string, improvements []string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_records SET optimized_content = $2, optimized_improvements = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, content, improvements, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("attach optimized content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, KindAnalysis, id, models.StatusCompleted)
	}
	return nil
}

func (s *PostgresStore) FailRecord(ctx context.Context, kind RecordKind, id uuid.UUID, errMsg string, processingTimeMS int64) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET status = $2, error_message = $3, processing_time_ms = $4,
			completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status IN ($5, $6)`,
		tableFor(kind)),
		id, models.StatusFailed, errMsg, processingTimeMS,
		models.StatusPending, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("fail record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, kind, id, models.StatusFailed)
	}
	return nil
}

// transitionFailure distinguishes a missing record from an illegal transition
// after a conditional update matched zero rows.
func (s *PostgresStore) transitionFailure(ctx context.Context, kind RecordKind, id uuid.UUID, attempted models.RecordStatus) error {
	var current models.RecordStatus
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT status FROM %s WHERE id = $1`, tableFor(kind)), id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get record status: %w", err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, attempted)
}

// --- scan helpers ---

func scanAnalysisRecord(row pgx.Row) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	var issuesJSON []byte
	err := row.Scan(&rec.ID, &rec.Status, &rec.TargetKeyword, &rec.InputURL, &rec.InputContent,
		&rec.OptimizedContent, &rec.OptimizedImprovements, &rec.ErrorMessage,
		&rec.SEOScore, &rec.WordCount, &rec.KeywordDensity, &rec.AvgSentenceLength,
		&rec.ReadabilityScore, &issuesJSON, &rec.ProcessingTimeMS,
		&rec.CreatedAt, &rec.CompletedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if issuesJSON != nil {
		if err := json.Unmarshal(issuesJSON, &rec.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
	}
	return &rec, nil
}

func scanOptimizationRecord(row pgx.Row) (*models.OptimizationRecord, error) {
	var rec models.OptimizationRecord
	err := row.Scan(&rec.ID, &rec.Status, &rec.TargetKeyword, &rec.InputContent,
		&rec.OptimizedContent, &rec.OptimizedImprovements, &rec.ErrorMessage,
		&rec.TargetLength, &rec.Tone, &rec.OptimizedKeywordDensity,
		&rec.ProcessingTimeMS, &rec.CreatedAt, &rec.CompletedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// --- query helpers ---

func filterClause(filter RecordFilter) (string, []any) {
	if filter.Status == "" {
		return "", nil
	}
	return " WHERE status = $1", []any{filter.Status}
}

func normalizePagination(filter RecordFilter) (limit, offset int) {
	limit = filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
