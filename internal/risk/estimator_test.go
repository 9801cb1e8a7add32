// File path: internal/risk/estimator_test.go
package risk

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
	return nil, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestEstimatorParsesScores(t *testing.T) {
	store, _, commitID := openRiskFixture(t)
	provider := &scriptedProvider{
		response: "```json\n{\"fr_completion\": 80, \"nfr_completion\": 60, \"compilation_likelihood\": 100}\n```",
	}
	inputs, err := NewEstimator(provider, store).Estimate(context.Background(), commitID)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if inputs.FRScore == nil || *inputs.FRScore != 80 {
		t.Fatalf("unexpected fr score: %v", inputs.FRScore)
	}
	if inputs.NFRScore == nil || *inputs.NFRScore != 60 {
		t.Fatalf("unexpected nfr score: %v", inputs.NFRScore)
	}
	if inputs.CompilationScore == nil || *inputs.CompilationScore != 100 {
		t.Fatalf("unexpected compilation score: %v", inputs.CompilationScore)
	}
}

func TestEstimatorDegradesToZeroScores(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	provider := &scriptedProvider{response: "I cannot decide right now."}
	inputs, err := NewEstimator(provider, store).Estimate(context.Background(), commitID)
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if inputs.FRScore == nil || *inputs.FRScore != 0 {
		t.Fatalf("expected zero fr score, got %v", inputs.FRScore)
	}

	// Zero scores still flow through to a (high risk) assessment.
	synth := defaultSynthesizer(t, store)
	assessment, err := synth.Assess(context.Background(), projectID, commitID, inputs)
	if err != nil {
		t.Fatalf("assess degraded inputs: %v", err)
	}
	if assessment.Recommendation != RecommendationHigh {
		t.Fatalf("expected high risk, got %q", assessment.Recommendation)
	}
}

func TestEstimatorClampsOutOfRangeScores(t *testing.T) {
	store, _, commitID := openRiskFixture(t)
	provider := &scriptedProvider{
		response: `{"fr_completion": 180, "nfr_completion": -20, "compilation_likelihood": 50}`,
	}
	inputs, err := NewEstimator(provider, store).Estimate(context.Background(), commitID)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if *inputs.FRScore != 100 || *inputs.NFRScore != 0 {
		t.Fatalf("expected clamped scores, got %.1f and %.1f", *inputs.FRScore, *inputs.NFRScore)
	}
}
