// Package anthropic implements models.AIProvider against the Anthropic
// messages API.
package anthropic

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

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	maxTokens      = 4096
)

// Provider implements models.AIProvider using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig, timeout time.Duration) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Optimize(ctx context.Context, req models.OptimizeRequest) (models.OptimizeResult, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: maxTokens,
		System:    ai.SystemPrompt,
		Messages: []message{
			{Role: "user", Content: ai.BuildPrompt(req)},
		},
	})
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("marshal messages request: %w", err)
	}

	baseURL := p.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return models.OptimizeResult{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
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

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return models.OptimizeResult{}, fmt.Errorf("%w: decoding response: %v", ai.ErrInvalidResponse, err)
	}
	if len(msgResp.Content) == 0 {
		return models.OptimizeResult{}, fmt.Errorf("%w: no content blocks returned", ai.ErrInvalidResponse)
	}

	return ai.ParseResponse(msgResp.Content[0].Text)
}

// --- Anthropic wire types ---

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

var _ models.AIProvider = (*Provider)(nil)
