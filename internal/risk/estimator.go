// File path: internal/risk/estimator.go
package risk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/llm"
)

const estimatorSystemPrompt = `You estimate delivery readiness. Given a project's functional
requirements, non-functional requirements, and the current code, respond
with a JSON object of exactly three keys: "fr_completion",
"nfr_completion", and "compilation_likelihood", each an integer from 0 to
100. Respond with JSON only.`

// RequirementReader is the persistence surface the estimator needs.
type RequirementReader interface {
	GetSnapshot(ctx context.Context, commitID string) (*catalog.Snapshot, error)
	ListFunctionalRequirements(ctx context.Context, projectID string) ([]catalog.FunctionalRequirement, error)
	ListNonFunctionalRequirements(ctx context.Context, projectID string) ([]catalog.NonFunctionalRequirement, error)
}

var _ RequirementReader = (*catalog.Store)(nil)

// Estimator asks the model to score a snapshot against its project's
// requirements. Unusable model output degrades to zero scores so the
// synthesizer still produces a (high-risk) assessment.
type Estimator struct {
	provider llm.Provider
	store    RequirementReader
}

func NewEstimator(provider llm.Provider, store RequirementReader) *Estimator {
	return &Estimator{provider: provider, store: store}
}

type rawEstimate struct {
	FRCompletion          float64 `json:"fr_completion"`
	NFRCompletion         float64 `json:"nfr_completion"`
	CompilationLikelihood float64 `json:"compilation_likelihood"`
}

// Estimate produces the three sub-scores for a commit.
func (e *Estimator) Estimate(ctx context.Context, commitID string) (Inputs, error) {
	if e == nil || e.provider == nil || e.store == nil {
		return Inputs{}, errors.New("estimator not initialised")
	}
	snapshot, err := e.store.GetSnapshot(ctx, commitID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load snapshot %s: %w", commitID, err)
	}
	frs, err := e.store.ListFunctionalRequirements(ctx, snapshot.ProjectID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load functional requirements: %w", err)
	}
	nfrs, err := e.store.ListNonFunctionalRequirements(ctx, snapshot.ProjectID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load non-functional requirements: %w", err)
	}

	response, err := e.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: estimatorSystemPrompt},
		{Role: "user", Content: buildEstimatorPrompt(snapshot, frs, nfrs)},
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("estimate chat: %w", err)
	}

	var raw rawEstimate
	if err := common.DecodeLooseJSON(response, &raw); err != nil {
		common.Logger().Warn("risk: unusable estimate payload, degrading to zero scores",
			"commit", commitID, "error", err)
		raw = rawEstimate{}
	}
	return Inputs{
		FRScore:          scorePtr(raw.FRCompletion),
		NFRScore:         scorePtr(raw.NFRCompletion),
		CompilationScore: scorePtr(raw.CompilationLikelihood),
	}, nil
}

func buildEstimatorPrompt(snapshot *catalog.Snapshot, frs []catalog.FunctionalRequirement, nfrs []catalog.NonFunctionalRequirement) string {
	var b strings.Builder
	b.WriteString("Functional requirements:\n")
	if len(frs) == 0 {
		b.WriteString("- (none recorded)\n")
	}
	for _, fr := range frs {
		fmt.Fprintf(&b, "- %s\n", fr.Description)
	}
	b.WriteString("\nNon-functional requirements:\n")
	if len(nfrs) == 0 {
		b.WriteString("- (none recorded)\n")
	}
	for _, nfr := range nfrs {
		fmt.Fprintf(&b, "- [%s] %s\n", nfr.Category, nfr.Description)
	}
	fmt.Fprintf(&b, "\nLanguage: %s\n\nCode:\n%s\n", snapshot.Language, snapshot.CodeText)
	return b.String()
}

func scorePtr(value float64) *float64 {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return &value
}
