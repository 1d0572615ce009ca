package models

import "context"

// AIProvider is the core interface that all generative-text integrations must
// implement. Never call specific AI providers directly — always inject this
// interface.
type AIProvider interface {
	// Optimize rewrites content for SEO and returns the rewritten text plus an
	// ordered list of improvement descriptions.
	Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResult, error)
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string
}

// OptimizeKind discriminates the two request shapes. The shape is decided once
// at orchestration entry; providers and prompts branch on it exhaustively.
type OptimizeKind string

const (
	// OptimizePostAnalysis rewrites content using the metrics and issues from a
	// completed SEO analysis as context.
	OptimizePostAnalysis OptimizeKind = "post_analysis"
	// OptimizeDirect rewrites content toward a requested length and tone.
	OptimizeDirect OptimizeKind = "direct"
)

// OptimizeRequest is the input to an AI optimization operation.
type OptimizeRequest struct {
	Kind          OptimizeKind
	Content       string
	TargetKeyword string

	// Set when Kind is OptimizePostAnalysis.
	Analysis *AnalysisContext

	// Set when Kind is OptimizeDirect.
	TargetLength int
	Tone         string
}

// AnalysisContext carries the metrics of a prior analysis into the prompt.
type AnalysisContext struct {
	WordCount         int
	KeywordDensity    float64
	AvgSentenceLength float64
	ReadabilityScore  float64
	Issues            []Issue
}

// OptimizeResult is the validated structured output of a provider call.
type OptimizeResult struct {
	OptimizedContent string
	Improvements     []string
}
