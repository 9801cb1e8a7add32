// File path: internal/catalog/store_test.go
package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedProjectWithCommit(t *testing.T, store *Store) (*Project, *Snapshot) {
	t.Helper()
	ctx := context.Background()
	project, err := store.CreateProject(ctx, "payments-service")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	snapshot, err := store.CreateSnapshot(ctx, Snapshot{
		ProjectID:     project.ID,
		DeveloperName: "alice",
		CodeText:      "func Handle() error { return nil }",
		Language:      "go",
	})
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	return project, snapshot
}

func TestOpenConfiguresConnectionPragmas(t *testing.T) {
	store := openTestStore(t)

	var journalMode string
	if err := store.DB().Get(&journalMode, `PRAGMA journal_mode`); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", journalMode)
	}
	var foreignKeys int
	if err := store.DB().Get(&foreignKeys, `PRAGMA foreign_keys`); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Fatalf("expected foreign keys enabled, got %d", foreignKeys)
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project, snapshot := seedProjectWithCommit(t, store)

	fr, err := store.CreateFunctionalRequirement(ctx, project.ID, "process refunds")
	if err != nil {
		t.Fatalf("create fr: %v", err)
	}
	if _, err := store.CreateNonFunctionalRequirement(ctx, project.ID, "Performance", "p99 under 200ms"); err != nil {
		t.Fatalf("create nfr: %v", err)
	}
	suggestion, err := store.CreateSuggestion(ctx, Suggestion{
		CommitID: snapshot.CommitID, LineStart: 1, LineEnd: 1,
		Suggestion: "check for nil before dereference", Severity: "high", Category: "null-check",
	})
	if err != nil {
		t.Fatalf("create suggestion: %v", err)
	}
	if _, err := store.InsertClassification(ctx, Classification{
		ReviewID: suggestion.ReviewID, Category: "null-check", Disposition: "accepted", Confidence: 0.9,
	}); err != nil {
		t.Fatalf("insert classification: %v", err)
	}
	if _, err := store.AppendRiskAssessment(ctx, RiskAssessment{
		ProjectID: project.ID, CommitID: snapshot.CommitID,
		FRScore: 80, NFRScore: 60, CompilationScore: 100,
		FinalScore: 80, Recommendation: "medium",
	}); err != nil {
		t.Fatalf("append assessment: %v", err)
	}

	cascade, err := store.DeleteProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if len(cascade.CommitIDs) != 1 || cascade.CommitIDs[0] != snapshot.CommitID {
		t.Fatalf("unexpected cascade commits: %v", cascade.CommitIDs)
	}
	foundFR := false
	for _, id := range cascade.RequirementIDs {
		if id == fr.ID {
			foundFR = true
		}
	}
	if !foundFR || len(cascade.RequirementIDs) != 2 {
		t.Fatalf("unexpected cascade requirements: %v", cascade.RequirementIDs)
	}

	if _, err := store.GetSnapshot(ctx, snapshot.CommitID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected snapshot removed, got %v", err)
	}
	if _, err := store.ClassificationForReview(ctx, suggestion.ReviewID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected classification removed, got %v", err)
	}
	if history, err := store.RiskHistory(ctx, snapshot.CommitID); err != nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %d rows err=%v", len(history), err)
	}
	if _, err := store.DeleteProject(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestClassificationIsInsertOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, snapshot := seedProjectWithCommit(t, store)

	suggestion, err := store.CreateSuggestion(ctx, Suggestion{
		CommitID: snapshot.CommitID, LineStart: 3, LineEnd: 5,
		Suggestion: "extract helper", Severity: "low", Category: "refactor",
	})
	if err != nil {
		t.Fatalf("create suggestion: %v", err)
	}

	first, err := store.InsertClassification(ctx, Classification{
		ReviewID: suggestion.ReviewID, Disposition: "accepted", Confidence: 0.85, Rationale: "region rewritten",
	})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second, err := store.InsertClassification(ctx, Classification{
		ReviewID: suggestion.ReviewID, Disposition: "not_handled", Confidence: 0.2,
	})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if second.ClassificationID != first.ClassificationID {
		t.Fatalf("expected single row, got ids %d and %d", first.ClassificationID, second.ClassificationID)
	}
	if second.Disposition != "accepted" {
		t.Fatalf("expected first write to win, got %q", second.Disposition)
	}
}

func TestRiskAssessmentsAppendOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project, snapshot := seedProjectWithCommit(t, store)

	for i, rec := range []string{"high", "medium", "low"} {
		if _, err := store.AppendRiskAssessment(ctx, RiskAssessment{
			ProjectID: project.ID, CommitID: snapshot.CommitID,
			FRScore: float64(30 * (i + 1)), NFRScore: 50, CompilationScore: 100,
			FinalScore: float64(30 * (i + 1)), Recommendation: rec,
		}); err != nil {
			t.Fatalf("append assessment %d: %v", i, err)
		}
	}
	history, err := store.RiskHistory(ctx, snapshot.CommitID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(history))
	}
	if history[0].Recommendation != "high" || history[2].Recommendation != "low" {
		t.Fatalf("unexpected order: %q %q", history[0].Recommendation, history[2].Recommendation)
	}
	latest, err := store.LatestRiskAssessment(ctx, snapshot.CommitID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Recommendation != "low" {
		t.Fatalf("expected latest to be low, got %q", latest.Recommendation)
	}
}

func TestPendingSuggestionsExcludeClassified(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, snapshot := seedProjectWithCommit(t, store)

	first, err := store.CreateSuggestion(ctx, Suggestion{
		CommitID: snapshot.CommitID, LineStart: 1, LineEnd: 2,
		Suggestion: "validate input", Severity: "high", Category: "validation",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.CreateSuggestion(ctx, Suggestion{
		CommitID: snapshot.CommitID, LineStart: 4, LineEnd: 4,
		Suggestion: "rename variable", Severity: "low", Category: "style",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := store.InsertClassification(ctx, Classification{
		ReviewID: first.ReviewID, Disposition: "modified", Confidence: 0.5,
	}); err != nil {
		t.Fatalf("classify first: %v", err)
	}

	pending, err := store.PendingSuggestions(ctx, snapshot.CommitID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ReviewID != second.ReviewID {
		t.Fatalf("expected only second suggestion pending, got %+v", pending)
	}
}

func TestRecurrenceCountExcludesCurrentReview(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	project, snapshot := seedProjectWithCommit(t, store)

	var last int64
	for i := 0; i < 3; i++ {
		suggestion, err := store.CreateSuggestion(ctx, Suggestion{
			CommitID: snapshot.CommitID, LineStart: i + 1, LineEnd: i + 1,
			Suggestion: "close the response body", Severity: "high", Category: "resource-leak",
		})
		if err != nil {
			t.Fatalf("create suggestion %d: %v", i, err)
		}
		if _, err := store.InsertClassification(ctx, Classification{
			ReviewID: suggestion.ReviewID, Disposition: "accepted", Confidence: 0.9,
		}); err != nil {
			t.Fatalf("classify %d: %v", i, err)
		}
		last = suggestion.ReviewID
	}

	count, err := store.CountCategorySeverity(ctx, project.ID, "resource-leak", "high", last)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 prior occurrences, got %d", count)
	}
}
