package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/seoscout/seoscout/internal/cache"
	"github.com/seoscout/seoscout/internal/extract"
	"github.com/seoscout/seoscout/internal/seo"
	"github.com/seoscout/seoscout/internal/store"
	"github.com/seoscout/seoscout/pkg/models"
)

// statusTTL bounds how long a record's status lives in the cache; the
// database stays the source of truth.
const statusTTL = 30 * time.Minute

// Orchestrator executes queued tasks. Within one task the steps are strictly
// sequential (fetch, score, persist, enqueue-next); parallelism only exists
// across records via the worker pool. Every persistence call is conditional
// on the record's current status, so work for a record that was failed or
// deleted mid-flight aborts instead of overwriting the terminal state.
type Orchestrator struct {
	store    store.Store
	cache    cache.Cache
	fetcher  extract.Fetcher
	analyzer *seo.Analyzer
	provider models.AIProvider
	queue    Queue
	policy   RetryPolicy
	timeout  time.Duration
}

// NewOrchestrator creates an Orchestrator. timeout bounds each AI provider
// call; the fetcher carries its own fetch timeout.
func NewOrchestrator(
	st store.Store,
	ca cache.Cache,
	fetcher extract.Fetcher,
	analyzer *seo.Analyzer,
	provider models.AIProvider,
	queue Queue,
	policy RetryPolicy,
	timeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		store:    st,
		cache:    ca,
		fetcher:  fetcher,
		analyzer: analyzer,
		provider: provider,
		queue:    queue,
		policy:   policy,
		timeout:  timeout,
	}
}

// ProcessTask runs one task to completion. It recovers from panics and marks
// the record failed so no record is ever stranded in processing. A nil return
// means the task is consumed; retries are realized by enqueueing a fresh task,
// never by redelivering this one.
func (o *Orchestrator) ProcessTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic processing task", "error", r, "kind", task.Kind, "record_id", task.RecordID)
			if task.Kind != TaskOptimizeFollowup {
				o.fail(ctx, kindFor(task.Kind), task.RecordID, fmt.Sprintf("panic: %v", r), 0)
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch task.Kind {
	case TaskAnalyze:
		return o.runAnalysis(ctx, task)
	case TaskOptimizeFollowup:
		return o.runFollowup(ctx, task)
	case TaskOptimizeDirect:
		return o.runDirect(ctx, task)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// runAnalysis drives one analysis record from pending to a terminal state:
// claim, optionally fetch, score, persist, then chain the follow-up
// optimization. Extraction and scoring failures are permanent, so the record
// goes straight to failed with no retry.
func (o *Orchestrator) runAnalysis(ctx context.Context, task Task) error {
	if !o.claim(ctx, store.KindAnalysis, task.RecordID) {
		return nil
	}

	rec, err := o.store.GetAnalysisRecord(ctx, task.RecordID)
	if err != nil {
		return fmt.Errorf("loading analysis record: %w", err)
	}

	start := time.Now()
	content := rec.InputContent
	var structure *seo.Structure

	if rec.InputURL != nil && *rec.InputURL != "" {
		page, err := o.fetcher.FetchContent(ctx, *rec.InputURL)
		if err != nil {
			slog.Warn("content fetch failed", "record_id", rec.ID, "url", *rec.InputURL, "error", err)
			o.fail(ctx, store.KindAnalysis, rec.ID, err.Error(), elapsedMS(start))
			return nil
		}
		content = page.Text
		structure = &page.Structure
	}

	metrics, err := o.analyzer.Analyze(content, rec.TargetKeyword, structure)
	if err != nil {
		slog.Warn("analysis failed", "record_id", rec.ID, "error", err)
		o.fail(ctx, store.KindAnalysis, rec.ID, err.Error(), elapsedMS(start))
		return nil
	}

	err = o.store.CompleteAnalysis(ctx, rec.ID, store.AnalysisResults{
		InputContent:      content,
		SEOScore:          metrics.SEOScore,
		WordCount:         metrics.WordCount,
		KeywordDensity:    metrics.KeywordDensity,
		AvgSentenceLength: metrics.AvgSentenceLength,
		ReadabilityScore:  metrics.ReadabilityScore,
		Issues:            metrics.Issues,
		ProcessingTimeMS:  elapsedMS(start),
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			slog.Warn("analysis result discarded, record no longer processing", "record_id", rec.ID, "error", err)
			return nil
		}
		return fmt.Errorf("persisting analysis: %w", err)
	}
	o.setStatus(ctx, rec.ID, models.StatusCompleted)

	followup := Task{Kind: TaskOptimizeFollowup, RecordID: rec.ID, Attempt: 1}
	if err := o.queue.Enqueue(ctx, followup, 0); err != nil {
		// The analysis itself succeeded; losing the follow-up only means the
		// record stays without optimized content.
		slog.Error("enqueueing optimization follow-up failed", "record_id", rec.ID, "error", err)
	}
	return nil
}

// runFollowup enriches a completed analysis record with AI-optimized content.
// The analysis is already terminal, so no outcome here ever changes the
// record's status: transient provider errors are retried, anything else is
// logged and abandoned.
func (o *Orchestrator) runFollowup(ctx context.Context, task Task) error {
	rec, err := o.store.GetAnalysisRecord(ctx, task.RecordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("follow-up target gone", "record_id", task.RecordID)
			return nil
		}
		return fmt.Errorf("loading analysis record: %w", err)
	}
	if rec.Status != models.StatusCompleted {
		slog.Warn("follow-up skipped, analysis not completed", "record_id", rec.ID, "status", rec.Status)
		return nil
	}
	if rec.OptimizedContent != nil {
		return nil
	}

	req := models.OptimizeRequest{
		Kind:          models.OptimizePostAnalysis,
		Content:       rec.InputContent,
		TargetKeyword: rec.TargetKeyword,
		Analysis:      analysisContext(rec),
	}

	result, err := o.optimize(ctx, req)
	if err != nil {
		if o.policy.ShouldRetry(err, task.Attempt) {
			return o.retry(ctx, task, err)
		}
		slog.Warn("optimization follow-up abandoned", "record_id", rec.ID, "attempt", task.Attempt, "error", err)
		return nil
	}

	err = o.store.AttachOptimizedContent(ctx, rec.ID, result.OptimizedContent, result.Improvements)
	if err != nil && !errors.Is(err, store.ErrInvalidTransition) && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("attaching optimized content: %w", err)
	}
	return nil
}

// runDirect drives one standalone optimization record. The first attempt
// claims it pending -> processing; retry attempts find it already processing
// and only verify it was not failed or deleted in the meantime.
func (o *Orchestrator) runDirect(ctx context.Context, task Task) error {
	if task.Attempt <= 1 {
		if !o.claim(ctx, store.KindOptimization, task.RecordID) {
			return nil
		}
	}

	rec, err := o.store.GetOptimizationRecord(ctx, task.RecordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("optimization target gone", "record_id", task.RecordID)
			return nil
		}
		return fmt.Errorf("loading optimization record: %w", err)
	}
	if task.Attempt > 1 && rec.Status != models.StatusProcessing {
		slog.Warn("retry skipped, record no longer processing", "record_id", rec.ID, "status", rec.Status)
		return nil
	}

	start := time.Now()
	req := models.OptimizeRequest{
		Kind:          models.OptimizeDirect,
		Content:       rec.InputContent,
		TargetKeyword: rec.TargetKeyword,
		TargetLength:  rec.TargetLength,
		Tone:          rec.Tone,
	}

	result, err := o.optimize(ctx, req)
	if err != nil {
		if o.policy.ShouldRetry(err, task.Attempt) {
			return o.retry(ctx, task, err)
		}
		o.fail(ctx, store.KindOptimization, rec.ID, err.Error(), elapsedMS(start))
		return nil
	}

	err = o.store.CompleteOptimization(ctx, rec.ID, store.OptimizationResults{
		OptimizedContent:        result.OptimizedContent,
		Improvements:            result.Improvements,
		OptimizedKeywordDensity: seo.Density(result.OptimizedContent, rec.TargetKeyword),
		ProcessingTimeMS:        elapsedMS(start),
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			slog.Warn("optimization result discarded, record no longer processing", "record_id", rec.ID, "error", err)
			return nil
		}
		return fmt.Errorf("persisting optimization: %w", err)
	}
	o.setStatus(ctx, rec.ID, models.StatusCompleted)
	return nil
}

// optimize calls the AI provider with the inference timeout applied.
func (o *Orchestrator) optimize(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.provider.Optimize(callCtx, req)
}

// claim transitions pending -> processing. A false return means the task is a
// no-op: the record is gone, already claimed by another worker, or terminal.
func (o *Orchestrator) claim(ctx context.Context, kind store.RecordKind, id uuid.UUID) bool {
	err := o.store.ClaimRecord(ctx, kind, id)
	if err == nil {
		o.setStatus(ctx, id, models.StatusProcessing)
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("claim skipped, record not found", "kind", kind, "record_id", id)
		return false
	}
	if errors.Is(err, store.ErrInvalidTransition) {
		slog.Warn("claim skipped, record not pending", "kind", kind, "record_id", id)
		return false
	}
	slog.Error("claim failed", "kind", kind, "record_id", id, "error", err)
	return false
}

// retry schedules the next attempt for the same record after the policy's
// backoff delay. Attempts for one record never overlap because the next task
// only becomes visible when the delay elapses.
func (o *Orchestrator) retry(ctx context.Context, task Task, cause error) error {
	delay := o.policy.Delay(task.Attempt)
	next := Task{Kind: task.Kind, RecordID: task.RecordID, Attempt: task.Attempt + 1}
	slog.Info("scheduling retry",
		"kind", task.Kind, "record_id", task.RecordID,
		"attempt", next.Attempt, "delay", delay, "error", cause)
	if err := o.queue.Enqueue(ctx, next, delay); err != nil {
		return fmt.Errorf("scheduling retry: %w", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, kind store.RecordKind, id uuid.UUID, msg string, processingTimeMS int64) {
	err := o.store.FailRecord(ctx, kind, id, msg, processingTimeMS)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			slog.Warn("failure not recorded, record already terminal", "kind", kind, "record_id", id)
			return
		}
		slog.Error("recording failure", "kind", kind, "record_id", id, "error", err)
		return
	}
	o.setStatus(ctx, id, models.StatusFailed)
}

func (o *Orchestrator) setStatus(ctx context.Context, id uuid.UUID, status models.RecordStatus) {
	if err := o.cache.SetRecordStatus(ctx, id, status, statusTTL); err != nil {
		slog.Warn("caching record status", "record_id", id, "error", err)
	}
}

func kindFor(kind TaskKind) store.RecordKind {
	if kind == TaskAnalyze {
		return store.KindAnalysis
	}
	return store.KindOptimization
}

// analysisContext copies the persisted metrics into the prompt context.
func analysisContext(rec *models.AnalysisRecord) *models.AnalysisContext {
	ac := &models.AnalysisContext{Issues: rec.Issues}
	if rec.WordCount != nil {
		ac.WordCount = *rec.WordCount
	}
	if rec.KeywordDensity != nil {
		ac.KeywordDensity = *rec.KeywordDensity
	}
	if rec.AvgSentenceLength != nil {
		ac.AvgSentenceLength = *rec.AvgSentenceLength
	}
	if rec.ReadabilityScore != nil {
		ac.ReadabilityScore = *rec.ReadabilityScore
	}
	return ac
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
