package factory

import (
	"fmt"

	"github.com/seoscout/seoscout/internal/ai/anthropic"
	"github.com/seoscout/seoscout/internal/ai/ollama"
	"github.com/seoscout/seoscout/internal/ai/openai"
	"github.com/seoscout/seoscout/internal/config"
	"github.com/seoscout/seoscout/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI, cfg.InferenceTimeout), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, cfg.InferenceTimeout), nil
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, cfg.InferenceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, anthropic, ollama", cfg.Provider)
	}
}
