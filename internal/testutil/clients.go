package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted reports a scripted client called with no responses
// configured.
var ErrScriptExhausted = errors.New("scripted client: no responses configured")

// ScriptedText is a textgen.Client double. It returns Responses in
// order (repeating the last one when exhausted), records every prompt it
// receives, and fails every call when Err is set.
type ScriptedText struct {
	Responses []string
	Err       error

	mu      sync.Mutex
	idx     int
	prompts []string
}

// Generate returns the next scripted response.
func (s *ScriptedText) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", ErrScriptExhausted
	}
	i := s.idx
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	s.idx++
	return s.Responses[i], nil
}

// Prompts returns a copy of every prompt received so far.
func (s *ScriptedText) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Calls returns how many times Generate was invoked.
func (s *ScriptedText) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// ScriptedImage is an imagegen.Client double returning fixed bytes, or
// failing every call when Err is set.
type ScriptedImage struct {
	Data []byte
	Err  error

	mu      sync.Mutex
	prompts []string
}

// Render returns the scripted image bytes.
func (s *ScriptedImage) Render(_ context.Context, prompt, _ string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Data, nil
}

// Calls returns how many times Render was invoked.
func (s *ScriptedImage) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
