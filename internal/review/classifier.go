// File path: internal/review/classifier.go
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
)

// Disposition values recorded against a classified suggestion.
const (
	DispositionAccepted   = "accepted"
	DispositionModified   = "modified"
	DispositionNotHandled = "not_handled"
)

// CatalogStore is the persistence surface the classifier needs.
type CatalogStore interface {
	GetSuggestion(ctx context.Context, reviewID int64) (*catalog.Suggestion, error)
	GetSnapshot(ctx context.Context, commitID string) (*catalog.Snapshot, error)
	PendingSuggestions(ctx context.Context, commitID string) ([]catalog.Suggestion, error)
	InsertClassification(ctx context.Context, c catalog.Classification) (*catalog.Classification, error)
	CountCategorySeverity(ctx context.Context, projectID, category, severity string, excludeReviewID int64) (int, error)
}

// LineageWalker exposes the descendant walk the classifier inspects.
type LineageWalker interface {
	Descendants(commitID string, maxGenerations int) ([]string, error)
}

var _ CatalogStore = (*catalog.Store)(nil)

// Classifier decides, deterministically, whether a review suggestion was
// accepted, modified, or never handled, by comparing the suggested line
// region across descendant snapshots of the commit it was raised on.
type Classifier struct {
	cfg     Config
	store   CatalogStore
	lineage LineageWalker
}

// NewClassifier builds a classifier with environment-derived configuration.
func NewClassifier(store CatalogStore, walker LineageWalker) (*Classifier, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewClassifierWithConfig(cfg, store, walker), nil
}

// NewClassifierWithConfig builds a classifier with explicit configuration.
func NewClassifierWithConfig(cfg Config, store CatalogStore, walker LineageWalker) *Classifier {
	cfg.applyDefaults()
	return &Classifier{cfg: cfg, store: store, lineage: walker}
}

// ClassifySuggestion classifies a single suggestion and persists the result.
// Classification is insert-once: a second call returns the stored row.
func (c *Classifier) ClassifySuggestion(ctx context.Context, reviewID int64) (*catalog.Classification, error) {
	if c == nil || c.store == nil {
		return nil, errors.New("classifier not initialised")
	}
	suggestion, err := c.store.GetSuggestion(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("load suggestion %d: %w", reviewID, err)
	}
	snapshot, err := c.store.GetSnapshot(ctx, suggestion.CommitID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", suggestion.CommitID, err)
	}

	disposition, confidence, rationale := c.judge(ctx, suggestion, snapshot)

	recurring := ""
	count, err := c.store.CountCategorySeverity(ctx, snapshot.ProjectID,
		suggestion.Category, suggestion.Severity, reviewID)
	if err != nil {
		common.Logger().Warn("review: recurrence count failed",
			"review", reviewID, "error", err)
	} else if count >= c.cfg.RecurringThreshold {
		recurring = suggestion.Category + "/" + suggestion.Severity
	}

	stored, err := c.store.InsertClassification(ctx, catalog.Classification{
		ReviewID:       reviewID,
		Category:       suggestion.Category,
		Disposition:    disposition,
		RecurringIssue: recurring,
		Confidence:     confidence,
		Rationale:      rationale,
	})
	if err != nil {
		return nil, fmt.Errorf("persist classification %d: %w", reviewID, err)
	}
	common.Logger().Info("review: suggestion classified",
		"review", reviewID, "disposition", stored.Disposition,
		"confidence", stored.Confidence, "recurring", stored.RecurringIssue)
	return stored, nil
}

// ClassifyCommit classifies every still-pending suggestion on a commit.
func (c *Classifier) ClassifyCommit(ctx context.Context, commitID string) ([]catalog.Classification, error) {
	if c == nil || c.store == nil {
		return nil, errors.New("classifier not initialised")
	}
	pending, err := c.store.PendingSuggestions(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("load pending suggestions: %w", err)
	}
	results := make([]catalog.Classification, 0, len(pending))
	for _, suggestion := range pending {
		classified, err := c.ClassifySuggestion(ctx, suggestion.ReviewID)
		if err != nil {
			return results, err
		}
		results = append(results, *classified)
	}
	return results, nil
}

func (c *Classifier) judge(ctx context.Context, suggestion *catalog.Suggestion, snapshot *catalog.Snapshot) (string, float64, string) {
	descendants, err := c.lineage.Descendants(snapshot.CommitID, c.cfg.WindowSize)
	if err != nil || len(descendants) == 0 {
		if err != nil {
			common.Logger().Warn("review: descendant walk failed",
				"commit", snapshot.CommitID, "error", err)
		}
		return DispositionNotHandled, 0.2,
			"no descendant snapshots observed within the inspection window"
	}

	original := extractRegion(snapshot.CodeText, suggestion.LineStart, suggestion.LineEnd)
	suggestionTokens := tokenize(suggestion.Suggestion)

	bestOverlap := -1.0
	bestCommit := ""
	changed := 0
	for _, descendantID := range descendants {
		descendant, err := c.store.GetSnapshot(ctx, descendantID)
		if err != nil {
			common.Logger().Warn("review: descendant snapshot missing",
				"commit", descendantID, "error", err)
			continue
		}
		region := extractRegion(descendant.CodeText, suggestion.LineStart, suggestion.LineEnd)
		if region == original {
			continue
		}
		changed++
		overlap := tokenOverlap(suggestionTokens, tokenize(region))
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestCommit = descendantID
		}
	}

	if changed == 0 {
		return DispositionNotHandled, 0.25,
			fmt.Sprintf("suggested region unchanged across %d descendant snapshot(s)", len(descendants))
	}
	if bestOverlap >= c.cfg.AcceptThreshold {
		confidence := clamp01(0.6 + 0.4*bestOverlap)
		return DispositionAccepted, confidence,
			fmt.Sprintf("region rewritten in commit %s with %.0f%% of suggestion terms present", bestCommit, bestOverlap*100)
	}
	confidence := clamp01(0.4 + 0.2*bestOverlap)
	return DispositionModified, confidence,
		fmt.Sprintf("region changed in commit %s but only %.0f%% of suggestion terms appear", bestCommit, bestOverlap*100)
}

// extractRegion returns lines [start, end] of text, 1-based inclusive, clamped
// to the document.
func extractRegion(text string, start, end int) string {
	lines := strings.Split(text, "\n")
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) < 2 {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
}

// tokenOverlap measures what fraction of the suggestion's terms appear in the
// rewritten region.
func tokenOverlap(suggestion, region map[string]struct{}) float64 {
	if len(suggestion) == 0 {
		return 0
	}
	hits := 0
	for token := range suggestion {
		if _, ok := region[token]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(suggestion))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
