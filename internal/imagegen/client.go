// Package imagegen talks to the image-generation collaborator, a Stable
// Diffusion txt2img web API. Same failure discipline as textgen: one
// bounded attempt, errors surfaced plainly, no retries.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoImage reports a well-formed response carrying no image payload.
var ErrNoImage = errors.New("no image in response")

// Client renders one image for a prompt/negative-prompt pair.
type Client interface {
	Render(ctx context.Context, prompt, negative string) ([]byte, error)
}

// DefaultTimeout bounds a single render request. Diffusion is slow;
// anything past this is treated as failure.
const DefaultTimeout = 45 * time.Second

// Fixed render parameters: small square avatars, fast sampler.
const (
	imageSize = 256
	steps     = 25
	sampler   = "Euler a"
)

// StableDiffusion is a Client for an AUTOMATIC1111-style
// /sdapi/v1/txt2img endpoint.
type StableDiffusion struct {
	baseURL string
	client  *http.Client
}

var _ Client = (*StableDiffusion)(nil)

// NewStableDiffusion creates a client for the given base URL.
// A non-positive timeout falls back to DefaultTimeout.
func NewStableDiffusion(baseURL string, timeout time.Duration) *StableDiffusion {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StableDiffusion{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type txt2imgRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Steps          int    `json:"steps"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	SamplerName    string `json:"sampler_name"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

// Render requests one image and returns the decoded bytes.
func (s *StableDiffusion) Render(ctx context.Context, prompt, negative string) ([]byte, error) {
	body, err := json.Marshal(txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: negative,
		Steps:          steps,
		Width:          imageSize,
		Height:         imageSize,
		SamplerName:    sampler,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render request: unexpected status %s", resp.Status)
	}

	var out txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}
	if len(out.Images) == 0 || out.Images[0] == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}
