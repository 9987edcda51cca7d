// Package ai answers the editor's content and style generation requests by
// prompting Gemini, with a TTL cache in front so repeated requests don't
// burn quota.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrInvalidRequest marks requests rejected before reaching the model.
var ErrInvalidRequest = errors.New("invalid generation request")

// ContentRequest asks for copy for a single page element.
type ContentRequest struct {
	Topic       string `json:"topic"`
	Tone        string `json:"tone"`
	ElementType string `json:"element_type"`
}

// StyleRequest asks for a site-wide style suggestion.
type StyleRequest struct {
	Description string `json:"description"`
}

// StyleSuggestion is the parsed style response.
type StyleSuggestion struct {
	Palette     []string `json:"palette"`
	HeadingFont string   `json:"heading_font"`
	BodyFont    string   `json:"body_font"`
}

// Service wraps a Generator with prompt templates and the response cache.
type Service struct {
	logger *slog.Logger
	gen    Generator
	cache  *Cache
}

// NewService creates the AI service.
func NewService(gen Generator, cacheTTL time.Duration, cacheMaxEntries int, logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
		gen:    gen,
		cache:  NewCache(cacheTTL, cacheMaxEntries),
	}
}

// StartJanitor sweeps expired cache entries until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.cache.Sweep(); removed > 0 {
					s.logger.Debug("swept AI cache", "removed", removed)
				}
			}
		}
	}()
}

// GenerateContent produces copy for a page element.
func (s *Service) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	if req.Topic == "" {
		return "", fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}

	key := cacheKey("content", req.Topic, req.Tone, req.ElementType)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	text, err := s.gen.Generate(ctx, contentPrompt(req))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	s.cache.Set(key, text)
	return text, nil
}

// GenerateStyle produces a palette and font pairing for a site description.
func (s *Service) GenerateStyle(ctx context.Context, req StyleRequest) (*StyleSuggestion, error) {
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}

	key := cacheKey("style", req.Description)
	if cached, ok := s.cache.Get(key); ok {
		var suggestion StyleSuggestion
		if err := json.Unmarshal([]byte(cached), &suggestion); err == nil {
			return &suggestion, nil
		}
		// Corrupt cache entry, regenerate.
	}

	text, err := s.gen.Generate(ctx, stylePrompt(req))
	if err != nil {
		return nil, err
	}

	suggestion, err := parseStyleResponse(text)
	if err != nil {
		s.logger.Warn("failed to parse style response", "error", err)
		return nil, fmt.Errorf("model returned an unusable style suggestion: %w", err)
	}

	raw, _ := json.Marshal(suggestion)
	s.cache.Set(key, string(raw))
	return suggestion, nil
}

func contentPrompt(req ContentRequest) string {
	tone := req.Tone
	if tone == "" {
		tone = "friendly and professional"
	}

	var b strings.Builder
	b.WriteString("You are writing website copy for a small business website builder.\n")
	fmt.Fprintf(&b, "Topic: %s\nTone: %s\n", req.Topic, tone)
	switch req.ElementType {
	case "hero":
		b.WriteString("Write a hero headline (max 10 words) and a one-sentence subheadline, separated by a newline.")
	case "button":
		b.WriteString("Write a short call-to-action button label, max 4 words.")
	default:
		b.WriteString("Write one short paragraph (max 60 words) of body copy.")
	}
	b.WriteString("\nReturn only the copy, no quotes or commentary.")
	return b.String()
}

func stylePrompt(req StyleRequest) string {
	return fmt.Sprintf(`Suggest a visual style for this website: %s

Respond with only a JSON object in this exact shape:
{"palette": ["#rrggbb", "#rrggbb", "#rrggbb", "#rrggbb"], "heading_font": "...", "body_font": "..."}
Use web-safe or Google Fonts names.`, req.Description)
}

// parseStyleResponse extracts the JSON object from the model output, which
// may be wrapped in markdown code fences.
func parseStyleResponse(text string) (*StyleSuggestion, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var suggestion StyleSuggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &suggestion); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(suggestion.Palette) == 0 {
		return nil, fmt.Errorf("suggestion has no palette")
	}
	return &suggestion, nil
}

func cacheKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x1f")
}
