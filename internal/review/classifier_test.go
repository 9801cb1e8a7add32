// File path: internal/review/classifier_test.go
package review

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/lineage"
)

type fixture struct {
	store   *catalog.Store
	tracker *lineage.Tracker
	project *catalog.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	project, err := store.CreateProject(context.Background(), "checkout")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return &fixture{
		store:   store,
		tracker: lineage.NewTrackerWithConfig(lineage.Config{MaxDepth: 50}),
		project: project,
	}
}

func (f *fixture) addSnapshot(t *testing.T, commitID, parentID, code string) {
	t.Helper()
	ctx := context.Background()
	var parent *string
	if parentID != "" {
		parent = &parentID
	}
	if _, err := f.store.CreateSnapshot(ctx, catalog.Snapshot{
		CommitID: commitID, ProjectID: f.project.ID, ParentCommitID: parent,
		DeveloperName: "alice", CodeText: code, Language: "go",
	}); err != nil {
		t.Fatalf("create snapshot %s: %v", commitID, err)
	}
	if err := f.tracker.Register(f.project.ID, commitID, parentID); err != nil {
		t.Fatalf("register %s: %v", commitID, err)
	}
}

func (f *fixture) addSuggestion(t *testing.T, commitID string, start, end int, text, severity, category string) int64 {
	t.Helper()
	stored, err := f.store.CreateSuggestion(context.Background(), catalog.Suggestion{
		CommitID: commitID, LineStart: start, LineEnd: end,
		Suggestion: text, Severity: severity, Category: category,
	})
	if err != nil {
		t.Fatalf("create suggestion: %v", err)
	}
	return stored.ReviewID
}

func newTestClassifier(f *fixture) *Classifier {
	return NewClassifierWithConfig(Config{WindowSize: 5, RecurringThreshold: 3, AcceptThreshold: 0.5},
		f.store, f.tracker)
}

func TestClassifyAcceptedSuggestion(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "",
		"func Load(p *Payload) string {\n\treturn p.Body\n}")
	f.addSnapshot(t, "c2", "c1",
		"func Load(p *Payload) string {\n\tif p == nil { return \"\" } // nil check before dereference\n}")
	reviewID := f.addSuggestion(t, "c1", 2, 2,
		"add a nil check before dereference", "high", "null-check")

	classified, err := newTestClassifier(f).ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if classified.Disposition != DispositionAccepted {
		t.Fatalf("expected accepted, got %q (%s)", classified.Disposition, classified.Rationale)
	}
	if classified.Confidence < 0.8 {
		t.Fatalf("expected confidence >= 0.8, got %.2f", classified.Confidence)
	}
}

func TestClassifyModifiedWhenRegionDiverges(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "",
		"func process(items []string) {\n\tfmt.Println(items)\n}")
	f.addSnapshot(t, "c2", "c1",
		"func process(items []string) {\n\tsortAndDeduplicate(items)\n}")
	reviewID := f.addSuggestion(t, "c1", 2, 2,
		"emit structured logging instead of printing", "low", "logging")

	classified, err := newTestClassifier(f).ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if classified.Disposition != DispositionModified {
		t.Fatalf("expected modified, got %q (%s)", classified.Disposition, classified.Rationale)
	}
	if classified.Confidence < 0.4 || classified.Confidence >= 0.6 {
		t.Fatalf("unexpected confidence %.2f", classified.Confidence)
	}
}

func TestClassifyNotHandledWhenRegionUnchanged(t *testing.T) {
	f := newFixture(t)
	code := "func sum(a, b int) int {\n\treturn a + b\n}"
	f.addSnapshot(t, "c1", "", code)
	f.addSnapshot(t, "c2", "c1", code+"\n\nfunc diff(a, b int) int {\n\treturn a - b\n}")
	reviewID := f.addSuggestion(t, "c1", 2, 2,
		"guard against integer overflow", "medium", "overflow")

	classified, err := newTestClassifier(f).ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if classified.Disposition != DispositionNotHandled {
		t.Fatalf("expected not_handled, got %q", classified.Disposition)
	}
	if classified.Confidence != 0.25 {
		t.Fatalf("expected confidence 0.25, got %.2f", classified.Confidence)
	}
}

func TestClassifyNotHandledWithoutDescendants(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "package main")
	reviewID := f.addSuggestion(t, "c1", 1, 1,
		"split into smaller packages", "low", "structure")

	classified, err := newTestClassifier(f).ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if classified.Disposition != DispositionNotHandled {
		t.Fatalf("expected not_handled, got %q", classified.Disposition)
	}
	if classified.Confidence > 0.3 {
		t.Fatalf("expected confidence <= 0.3, got %.2f", classified.Confidence)
	}
}

func TestClassificationStableOnReplay(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "package main")
	reviewID := f.addSuggestion(t, "c1", 1, 1, "add a doc comment", "low", "docs")

	classifier := newTestClassifier(f)
	first, err := classifier.ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("first classify: %v", err)
	}
	second, err := classifier.ClassifySuggestion(context.Background(), reviewID)
	if err != nil {
		t.Fatalf("second classify: %v", err)
	}
	if first.ClassificationID != second.ClassificationID {
		t.Fatalf("expected one stored row, got %d and %d",
			first.ClassificationID, second.ClassificationID)
	}
}

func TestRecurringIssueTagging(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "line one\nline two\nline three\nline four")
	classifier := newTestClassifier(f)

	var last *catalog.Classification
	for i := 0; i < 4; i++ {
		reviewID := f.addSuggestion(t, "c1", i+1, i+1,
			"close the response body", "high", "resource-leak")
		classified, err := classifier.ClassifySuggestion(context.Background(), reviewID)
		if err != nil {
			t.Fatalf("classify %d: %v", i, err)
		}
		last = classified
	}
	if last.RecurringIssue != "resource-leak/high" {
		t.Fatalf("expected recurring tag after threshold, got %q", last.RecurringIssue)
	}

	records, err := f.store.ClassificationsForProject(context.Background(), f.project.ID)
	if err != nil {
		t.Fatalf("project classifications: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0].RecurringIssue != "" {
		t.Fatalf("first classification should not be tagged, got %q", records[0].RecurringIssue)
	}
}

func TestClassifyCommitDrainsPending(t *testing.T) {
	f := newFixture(t)
	f.addSnapshot(t, "c1", "", "alpha\nbeta\ngamma")
	f.addSuggestion(t, "c1", 1, 1, "rename alpha", "low", "style")
	f.addSuggestion(t, "c1", 2, 2, "rename beta", "low", "style")

	results, err := newTestClassifier(f).ClassifyCommit(context.Background(), "c1")
	if err != nil {
		t.Fatalf("classify commit: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 classifications, got %d", len(results))
	}
	pending, err := f.store.PendingSuggestions(context.Background(), "c1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending suggestions, got %d", len(pending))
	}
}
