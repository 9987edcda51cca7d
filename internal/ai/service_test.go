package ai

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGenerateContent_CachesResponses(t *testing.T) {
	gen := &fakeGenerator{response: "  Welcome to the bakery!  "}
	svc := NewService(gen, time.Minute, 10, testLogger())

	req := ContentRequest{Topic: "bakery", Tone: "warm", ElementType: "hero"}

	got, err := svc.GenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Welcome to the bakery!" {
		t.Fatalf("expected trimmed response, got %q", got)
	}

	// Same request again, and again with different casing: one model call total.
	if _, err := svc.GenerateContent(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	req.Topic = "Bakery"
	if _, err := svc.GenerateContent(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", gen.calls)
	}
}

func TestGenerateContent_RequiresTopic(t *testing.T) {
	svc := NewService(&fakeGenerator{}, time.Minute, 10, testLogger())
	if _, err := svc.GenerateContent(context.Background(), ContentRequest{}); err == nil {
		t.Fatal("expected error for missing topic")
	}
}

func TestGenerateContent_PropagatesErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewService(gen, time.Minute, 10, testLogger())

	_, err := svc.GenerateContent(context.Background(), ContentRequest{Topic: "cafe"})
	if err == nil {
		t.Fatal("expected error")
	}
	// Failures must not be cached.
	gen.err = nil
	gen.response = "ok"
	if _, err := svc.GenerateContent(context.Background(), ContentRequest{Topic: "cafe"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", gen.calls)
	}
}

func TestGenerateStyle_ParsesFencedJSON(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"palette\": [\"#112233\", \"#445566\"], \"heading_font\": \"Playfair Display\", \"body_font\": \"Inter\"}\n```"}
	svc := NewService(gen, time.Minute, 10, testLogger())

	suggestion, err := svc.GenerateStyle(context.Background(), StyleRequest{Description: "modern bakery"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(suggestion.Palette) != 2 || suggestion.Palette[0] != "#112233" {
		t.Fatalf("unexpected palette: %#v", suggestion.Palette)
	}
	if suggestion.HeadingFont != "Playfair Display" || suggestion.BodyFont != "Inter" {
		t.Fatalf("unexpected fonts: %+v", suggestion)
	}

	// Second call is served from cache.
	if _, err := svc.GenerateStyle(context.Background(), StyleRequest{Description: "modern bakery"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", gen.calls)
	}
}

func TestGenerateStyle_RejectsGarbage(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot help with that."}
	svc := NewService(gen, time.Minute, 10, testLogger())

	if _, err := svc.GenerateStyle(context.Background(), StyleRequest{Description: "x"}); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}
