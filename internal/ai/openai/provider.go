// Package openai implements models.AIProvider against the OpenAI chat
// completions API.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements models.AIProvider using OpenAI.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig, timeout time.Duration) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Optimize(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: ai.SystemPrompt},
			{Role: "user", Content: ai.BuildPrompt(req)},
		},
		Temperature:    0.5,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("marshal chat request: %w", err)
	}

	baseURL := p.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
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

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return models.OptimizeResult{}, fmt.Errorf("%w: decoding response: %v", ai.ErrInvalidResponse, err)
	}
	if len(chatResp.Choices) == 0 {
		return models.OptimizeResult{}, fmt.Errorf("%w: no choices returned", ai.ErrInvalidResponse)
	}

	return ai.ParseResponse(chatResp.Choices[0].Message.Content)
}

// --- OpenAI wire types ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var _ models.AIProvider = (*Provider)(nil)
