// File path: internal/risk/synthesizer.go
package risk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
)

// Recommendation tiers for the final risk score.
const (
	RecommendationLow    = "low"
	RecommendationMedium = "medium"
	RecommendationHigh   = "high"
)

var (
	// ErrIncompleteInputs reports an assessment attempted without all three
	// sub-scores.
	ErrIncompleteInputs = errors.New("risk: all three sub-scores are required")
	// ErrInvalidWeights reports a weight set that does not sum to one.
	ErrInvalidWeights = errors.New("risk: invalid weights")
	// ErrScoreOutOfRange reports a sub-score outside [0, 100].
	ErrScoreOutOfRange = errors.New("risk: sub-score outside [0, 100]")
)

// Inputs carries the three completion signals, each on a 0-100 scale. Nil
// means the signal was never produced, which fails the assessment rather than
// silently defaulting.
type Inputs struct {
	FRScore          *float64
	NFRScore         *float64
	CompilationScore *float64
}

// AssessmentStore is the persistence surface the synthesizer needs.
type AssessmentStore interface {
	AppendRiskAssessment(ctx context.Context, a catalog.RiskAssessment) (*catalog.RiskAssessment, error)
	RiskHistory(ctx context.Context, commitID string) ([]catalog.RiskAssessment, error)
}

var _ AssessmentStore = (*catalog.Store)(nil)

// Synthesizer blends FR completion, NFR completion, and compilation likelihood
// into a single risk recommendation, appending every result to the commit's
// assessment history.
type Synthesizer struct {
	cfg   Config
	store AssessmentStore
}

// NewSynthesizer builds a synthesizer with environment-derived configuration.
func NewSynthesizer(store AssessmentStore) (*Synthesizer, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewSynthesizerWithConfig(cfg, store)
}

// NewSynthesizerWithConfig builds a synthesizer with explicit configuration.
func NewSynthesizerWithConfig(cfg Config, store AssessmentStore) (*Synthesizer, error) {
	cfg.applyDefaults()
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{cfg: cfg, store: store}, nil
}

// Assess computes and persists a risk assessment for a commit.
func (s *Synthesizer) Assess(ctx context.Context, projectID, commitID string, in Inputs) (*catalog.RiskAssessment, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("synthesizer not initialised")
	}
	if in.FRScore == nil || in.NFRScore == nil || in.CompilationScore == nil {
		return nil, ErrIncompleteInputs
	}
	scores := map[string]float64{
		"functional completion":     *in.FRScore,
		"non-functional completion": *in.NFRScore,
		"compilation likelihood":    *in.CompilationScore,
	}
	for name, value := range scores {
		if value < 0 || value > 100 {
			return nil, fmt.Errorf("%w: %s is %.1f", ErrScoreOutOfRange, name, value)
		}
	}

	final := s.cfg.Weights.FR**in.FRScore +
		s.cfg.Weights.NFR**in.NFRScore +
		s.cfg.Weights.Compilation**in.CompilationScore

	// Tier comparison tolerates the rounding error of the weighted sum so a
	// nominal 85.0 never slips into the tier below.
	const eps = 1e-9
	recommendation := RecommendationHigh
	switch {
	case final >= s.cfg.LowThreshold-eps:
		recommendation = RecommendationLow
	case final >= s.cfg.MediumThreshold-eps:
		recommendation = RecommendationMedium
	}

	assessment := catalog.RiskAssessment{
		ProjectID:        projectID,
		CommitID:         commitID,
		FRScore:          *in.FRScore,
		NFRScore:         *in.NFRScore,
		CompilationScore: *in.CompilationScore,
		FinalScore:       final,
		Recommendation:   recommendation,
		Rationale:        buildRationale(final, recommendation, scores, s.cfg.MediumThreshold),
	}
	stored, err := s.store.AppendRiskAssessment(ctx, assessment)
	if err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}
	common.Logger().Info("risk: assessment recorded",
		"commit", commitID, "final", fmt.Sprintf("%.1f", final),
		"recommendation", recommendation)
	return stored, nil
}

// History returns the append-only assessment series for a commit.
func (s *Synthesizer) History(ctx context.Context, commitID string) ([]catalog.RiskAssessment, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("synthesizer not initialised")
	}
	return s.store.RiskHistory(ctx, commitID)
}

// buildRationale names the weak signals so the recommendation is explainable.
// Sub-scores under the medium threshold are called out explicitly.
func buildRationale(final float64, recommendation string, scores map[string]float64, threshold float64) string {
	var weak []string
	for name, value := range scores {
		if value < threshold {
			weak = append(weak, fmt.Sprintf("%s at %.1f", name, value))
		}
	}
	sort.Strings(weak)
	if len(weak) == 0 {
		return fmt.Sprintf("final score %.1f; all sub-scores at or above %.0f", final, threshold)
	}
	return fmt.Sprintf("final score %.1f (%s risk); dragged down by %s",
		final, recommendation, strings.Join(weak, ", "))
}
