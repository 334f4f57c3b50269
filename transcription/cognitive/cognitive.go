// Package cognitive implements transcription.Provider against a
// conversation-style speech REST endpoint: raw audio bytes in, JSON
// recognition result out.
package cognitive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/skillsenselab/drivescribe/auth"
	"github.com/skillsenselab/drivescribe/errors"
	"github.com/skillsenselab/drivescribe/transcription"
)

// ProviderName is the registered name for the cognitive speech provider.
const ProviderName = "cognitive"

const (
	defaultTimeout     = 60 * time.Second
	defaultContentType = "audio/wav; codecs=audio/pcm; samplerate=16000"
)

// Config holds configuration for the cognitive speech provider.
type Config struct {
	// URL is the recognition endpoint.
	URL string `yaml:"url" mapstructure:"url"`
	// Timeout bounds each recognition call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("speech.url is required")
	}
	return nil
}

// Provider implements transcription.Provider over the speech REST API.
type Provider struct {
	cfg    Config
	client *http.Client
	tokens auth.Source
}

// NewProvider creates a cognitive speech transcription provider.
func NewProvider(cfg Config, tokens auth.Source) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the speech endpoint is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Transcribe posts the raw audio bytes with a bearer credential and language
// code, and returns the recognized text. A non-2xx response or a missing
// result field is an error.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("cognitive: audio content is required")
	}
	if req.Language == "" {
		return nil, fmt.Errorf("cognitive: language code is required")
	}

	endpoint := p.cfg.URL + "?language=" + url.QueryEscape(req.Language)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Audio))
	if err != nil {
		return nil, fmt.Errorf("cognitive: create request: %w", err)
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("cognitive: bearer token: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cognitive: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.ExternalServiceError("speech",
			fmt.Errorf("cognitive: status %d: %s", resp.StatusCode, string(body)))
	}

	var result recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("cognitive: decode response: %w", err)
	}
	if result.DisplayText == "" {
		return nil, fmt.Errorf("cognitive: response carries no display text (status %q)", result.RecognitionStatus)
	}

	return &transcription.Response{
		Text:     result.DisplayText,
		Language: req.Language,
		Duration: float64(result.Duration) / ticksPerSecond,
	}, nil
}

// The service reports offsets and durations in 100ns ticks.
const ticksPerSecond = 1e7

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

var _ transcription.Provider = (*Provider)(nil)
