// File path: internal/review/suggester_test.go
package review

import (
	"context"
	"testing"

	"github.com/Yoshani/team-xc7/internal/llm"
)

type scriptedProvider struct {
	response string
	err      error
}

func (s *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return s.response, s.err
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestSuggesterParsesFencedJSON(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "func Get(url string) {\n\thttp.Get(url)\n}")

	provider := &scriptedProvider{response: "```json\n" +
		`[{"line_start": 2, "line_end": 2, "suggestion": "close the response body", "severity": "HIGH", "category": "Resource-Leak"}]` +
		"\n```"}
	suggestions, err := NewSuggester(provider, f.store).Review(context.Background(), "c1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	got := suggestions[0]
	if got.Severity != "high" || got.Category != "resource-leak" {
		t.Fatalf("expected normalised severity/category, got %q/%q", got.Severity, got.Category)
	}
	if got.ReviewID == 0 {
		t.Fatal("expected suggestion to be persisted with an id")
	}
}

func TestSuggesterDegradesOnProseOutput(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "package main")

	provider := &scriptedProvider{response: "The code looks fine to me, nothing to add."}
	suggestions, err := NewSuggester(provider, f.store).Review(context.Background(), "c1")
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(suggestions))
	}
}

func TestSuggesterClampsLineRanges(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "package main")

	provider := &scriptedProvider{response: `[{"line_start": 0, "line_end": -3, "suggestion": "add package docs", "severity": "low", "category": "docs"}]`}
	suggestions, err := NewSuggester(provider, f.store).Review(context.Background(), "c1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	if suggestions[0].LineStart != 1 || suggestions[0].LineEnd != 1 {
		t.Fatalf("expected clamped range 1..1, got %d..%d",
			suggestions[0].LineStart, suggestions[0].LineEnd)
	}
}
