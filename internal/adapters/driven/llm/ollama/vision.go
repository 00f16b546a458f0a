// Package ollama provides the classification service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Ensure VisionService implements the interface.
var _ driven.VisionModel = (*VisionService)(nil)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// Config holds configuration for the Ollama vision service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the multimodal model to use (default: llava).
	Model string

	// TextTimeout bounds text-only requests (default: 60s).
	TextTimeout time.Duration

	// ImageTimeout bounds requests carrying images (default: 120s).
	ImageTimeout time.Duration

	// RequestsPerMinute throttles calls. Zero disables throttling.
	RequestsPerMinute int
}

// VisionService classifies text and images through /api/generate.
type VisionService struct {
	client       *http.Client
	baseURL      string
	model        string
	textTimeout  time.Duration
	imageTimeout time.Duration
	limiter      *rate.Limiter
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// StatusError reports a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying: 429 and 5xx.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewVisionService creates a new Ollama vision service.
func NewVisionService(cfg Config) *VisionService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultModelURL
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultModel
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = domain.DefaultTextTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = domain.DefaultImageTimeout
	}

	s := &VisionService{
		client:       &http.Client{},
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
		textTimeout:  cfg.TextTimeout,
		imageTimeout: cfg.ImageTimeout,
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return s
}

// Generate sends one non-streaming request. The timeout depends on whether
// the request carries images.
func (s *VisionService) Generate(ctx context.Context, in driven.GenerateRequest) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	timeout := s.textTimeout
	if len(in.Images) > 0 {
		timeout = s.imageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	jsonBody, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: in.Prompt,
		Images: in.Images,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w: %w", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

// ModelName returns the name of the model being used.
func (s *VisionService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *VisionService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.textTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w: %w", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
