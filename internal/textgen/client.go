// Package textgen talks to the text-generation collaborator. The backend
// is assumed slow and flaky: every call carries a timeout and any error,
// empty, or malformed response surfaces as a plain error for the caller
// to absorb. Nothing here retries.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyCompletion reports a well-formed response with no usable text.
var ErrEmptyCompletion = errors.New("empty completion")

// Client produces a text completion for a free-text instruction.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 60 * time.Second

// Ollama is a Client for an Ollama-compatible /api/generate endpoint.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ Client = (*Ollama)(nil)

// NewOllama creates a client for the given base URL and model.
// A non-positive timeout falls back to DefaultTimeout.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate requests a single non-streaming completion.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: o.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request: unexpected status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
