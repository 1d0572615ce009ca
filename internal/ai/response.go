package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seoscout/seoscout/pkg/models"
)

// rawResult mirrors the JSON contract in SystemPrompt.
type rawResult struct {
	OptimizedContent *string  `json:"optimized_content"`
	ImprovementsDone []string `json:"improvements_done"`
}

// ParseResponse validates the raw model output against the contract. Any
// structural violation maps to ErrInvalidResponse, which the orchestrator
// treats as a deterministic bug and never retries.
func ParseResponse(raw string) (models.OptimizeResult, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return models.OptimizeResult{}, fmt.Errorf("%w: empty response body", ErrInvalidResponse)
	}

	var parsed rawResult
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return models.OptimizeResult{}, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidResponse, err)
	}

	if parsed.OptimizedContent == nil || strings.TrimSpace(*parsed.OptimizedContent) == "" {
		return models.OptimizeResult{}, fmt.Errorf("%w: missing optimized_content", ErrInvalidResponse)
	}
	if parsed.ImprovementsDone == nil {
		return models.OptimizeResult{}, fmt.Errorf("%w: missing improvements_done", ErrInvalidResponse)
	}

	return models.OptimizeResult{
		OptimizedContent: *parsed.OptimizedContent,
		Improvements:     parsed.ImprovementsDone,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence that chat models
// sometimes wrap JSON output in despite instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
