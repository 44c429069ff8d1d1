package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"giftwall/pkg/config"
)

// HTTPProvider calls a moderation endpoint that accepts {"input": "..."} and
// answers either {"flagged": bool} or the OpenAI-style
// {"results": [{"flagged": bool}]}.
type HTTPProvider struct {
	name   string
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPProvider(name, url, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:   name,
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// FromConfig returns the configured provider, or nil when moderation is not
// configured.
func FromConfig(cfg *config.Config) Provider {
	if cfg.ModerationProvider == "" || cfg.ModerationURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.ModerationTimeoutSec) * time.Second
	return NewHTTPProvider(cfg.ModerationProvider, cfg.ModerationURL, cfg.ModerationAPIKey, timeout)
}

func (p *HTTPProvider) Name() string {
	return p.name
}

type classifyRequest struct {
	Input string `json:"input"`
}

type classifyResponse struct {
	Flagged *bool `json:"flagged"`
	Results []struct {
		Flagged bool `json:"flagged"`
	} `json:"results"`
}

func (p *HTTPProvider) Classify(ctx context.Context, text string) (bool, string, error) {
	body, err := json.Marshal(classifyRequest{Input: text})
	if err != nil {
		return false, "", fmt.Errorf("failed to encode moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("failed to build moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, "", fmt.Errorf("failed to read moderation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, string(raw), fmt.Errorf("moderation provider returned status %d", resp.StatusCode)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, string(raw), fmt.Errorf("failed to decode moderation response: %w", err)
	}

	if parsed.Flagged != nil {
		return *parsed.Flagged, string(raw), nil
	}
	if len(parsed.Results) > 0 {
		return parsed.Results[0].Flagged, string(raw), nil
	}
	return false, string(raw), fmt.Errorf("moderation response carried no verdict")
}
