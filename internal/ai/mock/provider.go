// Package mock provides an in-memory models.AIProvider for tests.
package mock

import (
	"context"

	"github.com/seoscout/seoscout/internal/ai"
	"github.com/seoscout/seoscout/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	OptimizeFunc func(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error)

	// Calls records every request received, in order.
	Calls []models.OptimizeRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Optimize(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
	m.Calls = append(m.Calls, req)
	if m.OptimizeFunc != nil {
		return m.OptimizeFunc(ctx, req)
	}
	return models.OptimizeResult{}, nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		OptimizeFunc: func(_ context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
			return models.OptimizeResult{
				OptimizedContent: "Optimized: " + req.Content,
				Improvements:     []string{"Adjusted keyword density", "Shortened long sentences"},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		OptimizeFunc: func(_ context.Context, _ models.OptimizeRequest) (models.OptimizeResult, error) {
			return models.OptimizeResult{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		OptimizeFunc: func(ctx context.Context, _ models.OptimizeRequest) (models.OptimizeResult, error) {
			<-ctx.Done()
			return models.OptimizeResult{}, ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
