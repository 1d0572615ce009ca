// Package ollama implements models.AIProvider against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seoscout/seoscout/internal/ai"
	"github.com/seoscout/seoscout/internal/config"
	"github.com/seoscout/seoscout/pkg/models"
)

// Provider implements models.AIProvider using Ollama.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig, timeout time.Duration) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Optimize(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.cfg.Model,
		System: ai.SystemPrompt,
		Prompt: ai.BuildPrompt(req),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.OptimizeResult{}, ai.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.OptimizeResult{}, fmt.Errorf("%w: status %d: %s",
			ai.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return models.OptimizeResult{}, fmt.Errorf("%w: decoding response: %v", ai.ErrInvalidResponse, err)
	}

	return ai.ParseResponse(genResp.Response)
}

// --- Ollama wire types ---

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

var _ models.AIProvider = (*Provider)(nil)
