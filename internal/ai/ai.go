// Package ai is the text-generation capability used for commentary.
// Nothing in the ledger depends on it for correctness: callers go through
// BestEffort or treat every error as "no message".
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnavailable is returned when no credential is configured.
	ErrUnavailable   = errors.New("text generation unavailable")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Request is a single prompt. JSON asks the model for a JSON object; Pro
// selects the larger model.
type Request struct {
	Prompt string
	System string
	JSON   bool
	Pro    bool
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// BestEffort returns the generated text, or fallback when g is nil, fails,
// is cancelled or returns only whitespace.
func BestEffort(ctx context.Context, g Generator, req Request, fallback string) string {
	if g == nil {
		return fallback
	}
	text, err := g.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			slog.WarnContext(ctx, "Text generation failed, using fallback", "error", err)
		}
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}

// GenerateJSON runs req in JSON mode and decodes the reply into T.
func GenerateJSON[T any](ctx context.Context, g Generator, req Request) (*T, error) {
	if g == nil {
		return nil, ErrUnavailable
	}
	req.JSON = true
	text, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	return &out, nil
}

// stripFences removes a surrounding ```json block some models add even in
// JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
