// File path: internal/review/suggester.go
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/llm"
)

const suggesterSystemPrompt = `You are a rigorous code reviewer. Examine the submitted code and respond
with a JSON array of suggestion objects. Each object must have the keys
"line_start" (int), "line_end" (int), "suggestion" (string), "severity"
(one of "low", "medium", "high"), and "category" (a short kebab-case tag
such as "null-check" or "resource-leak"). Respond with JSON only.`

// SuggestionWriter is the persistence surface the suggester needs.
type SuggestionWriter interface {
	GetSnapshot(ctx context.Context, commitID string) (*catalog.Snapshot, error)
	CreateSuggestion(ctx context.Context, suggestion catalog.Suggestion) (*catalog.Suggestion, error)
}

var _ SuggestionWriter = (*catalog.Store)(nil)

// Suggester asks the model to review a snapshot and records whatever
// well-formed suggestions come back. Malformed model output degrades to an
// empty result rather than an error.
type Suggester struct {
	provider llm.Provider
	store    SuggestionWriter
}

func NewSuggester(provider llm.Provider, store SuggestionWriter) *Suggester {
	return &Suggester{provider: provider, store: store}
}

type rawSuggestion struct {
	LineStart  int    `json:"line_start"`
	LineEnd    int    `json:"line_end"`
	Suggestion string `json:"suggestion"`
	Severity   string `json:"severity"`
	Category   string `json:"category"`
}

// Review generates and persists suggestions for the given commit.
func (s *Suggester) Review(ctx context.Context, commitID string) ([]catalog.Suggestion, error) {
	if s == nil || s.provider == nil || s.store == nil {
		return nil, errors.New("suggester not initialised")
	}
	snapshot, err := s.store.GetSnapshot(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", commitID, err)
	}

	prompt := fmt.Sprintf("Language: %s\n\n%s", snapshot.Language, snapshot.CodeText)
	response, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: suggesterSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("review chat: %w", err)
	}

	var raw []rawSuggestion
	if err := common.DecodeLooseJSON(response, &raw); err != nil {
		common.Logger().Warn("review: unparseable suggestion payload, skipping",
			"commit", commitID, "error", err)
		return nil, nil
	}

	logger := common.Logger()
	suggestions := make([]catalog.Suggestion, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item.Suggestion) == "" {
			continue
		}
		if item.LineStart < 1 {
			item.LineStart = 1
		}
		if item.LineEnd < item.LineStart {
			item.LineEnd = item.LineStart
		}
		stored, err := s.store.CreateSuggestion(ctx, catalog.Suggestion{
			CommitID:   commitID,
			LineStart:  item.LineStart,
			LineEnd:    item.LineEnd,
			Suggestion: strings.TrimSpace(item.Suggestion),
			Severity:   normalizeSeverity(item.Severity),
			Category:   strings.TrimSpace(strings.ToLower(item.Category)),
		})
		if err != nil {
			return suggestions, fmt.Errorf("persist suggestion: %w", err)
		}
		suggestions = append(suggestions, *stored)
	}
	logger.Info("review: suggestions recorded", "commit", commitID, "count", len(suggestions))
	return suggestions, nil
}

func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high", "critical":
		return "high"
	case "medium", "moderate":
		return "medium"
	default:
		return "low"
	}
}
