// File path: internal/nfr/generator.go
package nfr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/llm"
	"github.com/Yoshani/team-xc7/internal/retriever"
	"github.com/Yoshani/team-xc7/internal/vector"
)

const generatorSystemPrompt = `You derive non-functional requirements from functional ones. For the
given functional requirement, respond with a JSON array of objects, each
with a "category" key (one of "Performance", "Security", "Reliability",
"Scalability", "Usability", "Maintainability") and a "description" key.
Each description must be specific, measurable, achievable, relevant, and
time-bound. Use the worked examples as a style guide. Respond with JSON
only.`

// ExampleSource supplies worked seed examples for the prompt.
type ExampleSource interface {
	Retrieve(ctx context.Context, query string, k int) ([]retriever.Example, error)
}

// RequirementStore is the persistence surface the generator needs.
type RequirementStore interface {
	ListFunctionalRequirements(ctx context.Context, projectID string) ([]catalog.FunctionalRequirement, error)
	CreateNonFunctionalRequirement(ctx context.Context, projectID, category, description string) (*catalog.NonFunctionalRequirement, error)
}

var _ RequirementStore = (*catalog.Store)(nil)
var _ ExampleSource = (*retriever.Retriever)(nil)

// Generator produces persisted NFRs for each of a project's FRs, grounding
// the prompt in retrieved seed examples. Unparseable model output for one FR
// skips that FR instead of failing the batch.
type Generator struct {
	cfg      Config
	provider llm.Provider
	examples ExampleSource
	store    RequirementStore
	index    vector.Store
}

// New builds a generator with environment-derived configuration. The index is
// optional; when present, generated NFRs are embedded for later retrieval.
func New(provider llm.Provider, examples ExampleSource, store RequirementStore, index vector.Store) (*Generator, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, provider, examples, store, index), nil
}

// NewWithConfig builds a generator with explicit configuration.
func NewWithConfig(cfg Config, provider llm.Provider, examples ExampleSource, store RequirementStore, index vector.Store) *Generator {
	cfg.applyDefaults()
	return &Generator{cfg: cfg, provider: provider, examples: examples, store: store, index: index}
}

type rawNFR struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Generate derives and persists NFRs for every FR in the project.
func (g *Generator) Generate(ctx context.Context, projectID string) ([]catalog.NonFunctionalRequirement, error) {
	if g == nil || g.provider == nil || g.store == nil {
		return nil, errors.New("generator not initialised")
	}
	frs, err := g.store.ListFunctionalRequirements(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load functional requirements: %w", err)
	}
	if len(frs) == 0 {
		return nil, fmt.Errorf("project %s has no functional requirements", projectID)
	}

	logger := common.Logger()
	var generated []catalog.NonFunctionalRequirement
	for _, fr := range frs {
		items, err := g.generateForRequirement(ctx, fr)
		if err != nil {
			logger.Warn("nfr: generation failed for requirement, skipping",
				"requirement", fr.ID, "error", err)
			continue
		}
		generated = append(generated, items...)
	}
	logger.Info("nfr: generation complete",
		"project", projectID, "requirements", len(frs), "generated", len(generated))
	return generated, nil
}

func (g *Generator) generateForRequirement(ctx context.Context, fr catalog.FunctionalRequirement) ([]catalog.NonFunctionalRequirement, error) {
	prompt, err := g.buildPrompt(ctx, fr)
	if err != nil {
		return nil, err
	}
	response, err := g.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: generatorSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("generation chat: %w", err)
	}

	var raw []rawNFR
	if err := common.DecodeLooseJSON(response, &raw); err != nil {
		return nil, fmt.Errorf("decode generation payload: %w", err)
	}

	var out []catalog.NonFunctionalRequirement
	for _, item := range raw {
		if len(out) >= g.cfg.MaxPerRequirement {
			break
		}
		description := strings.TrimSpace(item.Description)
		if description == "" {
			continue
		}
		stored, err := g.store.CreateNonFunctionalRequirement(ctx, fr.ProjectID,
			normalizeCategory(item.Category), description)
		if err != nil {
			return out, fmt.Errorf("persist generated requirement: %w", err)
		}
		g.indexRequirement(ctx, stored)
		out = append(out, *stored)
	}
	return out, nil
}

func (g *Generator) buildPrompt(ctx context.Context, fr catalog.FunctionalRequirement) (string, error) {
	var b strings.Builder
	if g.examples != nil {
		examples, err := g.examples.Retrieve(ctx, fr.Description, g.cfg.ExampleLimit)
		if err != nil {
			return "", fmt.Errorf("retrieve examples: %w", err)
		}
		if len(examples) > 0 {
			b.WriteString("Worked examples:\n")
			for i, example := range examples {
				fmt.Fprintf(&b, "%d. FR: %s\n   NFR: %s\n", i+1, example.FRText, example.NFRText)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "Functional requirement:\n%s\n", fr.Description)
	return b.String(), nil
}

func (g *Generator) indexRequirement(ctx context.Context, nfr *catalog.NonFunctionalRequirement) {
	if g.index == nil {
		return
	}
	vectors, err := g.provider.Embed(ctx, []string{nfr.Description})
	if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
		common.Logger().Warn("nfr: embedding skipped",
			"requirement", nfr.ID, "error", err)
		return
	}
	if err := g.index.Put(ctx, vector.TypeNFR, nfr.ID, vectors[0]); err != nil {
		common.Logger().Warn("nfr: indexing failed",
			"requirement", nfr.ID, "error", err)
	}
}

func normalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return "General"
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}
