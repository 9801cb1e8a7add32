// File path: internal/risk/synthesizer_test.go
package risk

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yoshani/team-xc7/internal/catalog"
)

func openRiskFixture(t *testing.T) (*catalog.Store, string, string) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	project, err := store.CreateProject(ctx, "ledger")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	snapshot, err := store.CreateSnapshot(ctx, catalog.Snapshot{
		ProjectID: project.ID, DeveloperName: "bob",
		CodeText: "package ledger", Language: "go",
	})
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	return store, project.ID, snapshot.CommitID
}

func ptr(v float64) *float64 { return &v }

func defaultSynthesizer(t *testing.T, store AssessmentStore) *Synthesizer {
	t.Helper()
	synth, err := NewSynthesizerWithConfig(Config{}, store)
	if err != nil {
		t.Fatalf("build synthesizer: %v", err)
	}
	return synth
}

func TestEqualWeightBlendLandsOnMedium(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	assessment, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
		FRScore: ptr(80), NFRScore: ptr(60), CompilationScore: ptr(100),
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if math.Abs(assessment.FinalScore-80) > 1e-9 {
		t.Fatalf("expected final score 80, got %.4f", assessment.FinalScore)
	}
	if assessment.Recommendation != RecommendationMedium {
		t.Fatalf("expected medium, got %q", assessment.Recommendation)
	}
}

func TestRecommendationTiers(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	cases := []struct {
		score float64
		want  string
	}{
		{95, RecommendationLow},
		{85, RecommendationLow},
		{84.9, RecommendationMedium},
		{60, RecommendationMedium},
		{59.9, RecommendationHigh},
		{10, RecommendationHigh},
	}
	for _, tc := range cases {
		assessment, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
			FRScore: ptr(tc.score), NFRScore: ptr(tc.score), CompilationScore: ptr(tc.score),
		})
		if err != nil {
			t.Fatalf("assess %.1f: %v", tc.score, err)
		}
		if assessment.Recommendation != tc.want {
			t.Fatalf("score %.1f: expected %q, got %q", tc.score, tc.want, assessment.Recommendation)
		}
	}
}

func TestMissingInputsRejected(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	_, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
		FRScore: ptr(80), NFRScore: ptr(70),
	})
	if !errors.Is(err, ErrIncompleteInputs) {
		t.Fatalf("expected ErrIncompleteInputs, got %v", err)
	}
	history, err := synth.History(context.Background(), commitID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no persisted assessments, got %d", len(history))
	}
}

func TestOutOfRangeScoreRejected(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	_, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
		FRScore: ptr(120), NFRScore: ptr(50), CompilationScore: ptr(50),
	})
	if !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected ErrScoreOutOfRange, got %v", err)
	}
}

func TestWeightsMustSumToOne(t *testing.T) {
	store, _, _ := openRiskFixture(t)
	_, err := NewSynthesizerWithConfig(Config{
		Weights: Weights{FR: 0.5, NFR: 0.5, Compilation: 0.5},
	}, store)
	if !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestRationaleNamesWeakSignals(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	assessment, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
		FRScore: ptr(90), NFRScore: ptr(30), CompilationScore: ptr(95),
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if !strings.Contains(assessment.Rationale, "non-functional completion at 30.0") {
		t.Fatalf("expected weak NFR signal in rationale, got %q", assessment.Rationale)
	}
	if strings.Contains(assessment.Rationale, "functional completion at 90.0") {
		t.Fatalf("strong signals should not be called out: %q", assessment.Rationale)
	}
}

func TestAssessmentsAccumulate(t *testing.T) {
	store, projectID, commitID := openRiskFixture(t)
	synth := defaultSynthesizer(t, store)

	for i := 0; i < 3; i++ {
		if _, err := synth.Assess(context.Background(), projectID, commitID, Inputs{
			FRScore: ptr(70), NFRScore: ptr(70), CompilationScore: ptr(70),
		}); err != nil {
			t.Fatalf("assess %d: %v", i, err)
		}
	}
	history, err := synth.History(context.Background(), commitID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(history))
	}
}
