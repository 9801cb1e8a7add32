// File path: internal/catalog/writes.go
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateProject inserts a new project, generating its identifier.
func (s *Store) CreateProject(ctx context.Context, name string) (*Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name required")
	}
	project := &Project{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, name, created_at) VALUES (?, ?, ?)`,
		project.ID, project.Name, project.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project and, through the schema cascades, all of its
// commits, requirements, suggestions, classifications, assessments, and
// metrics. The returned CascadeResult lists reference ids whose embeddings the
// vector store must garbage-collect.
func (s *Store) DeleteProject(ctx context.Context, projectID string) (*CascadeResult, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	result := &CascadeResult{}
	if err := s.db.SelectContext(ctx, &result.CommitIDs,
		`SELECT commit_id FROM code_snapshots WHERE project_id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("select cascade commits: %w", err)
	}
	if err := s.db.SelectContext(ctx, &result.RequirementIDs,
		`SELECT requirement_id FROM functional_requirements WHERE project_id = ?
                 UNION ALL
                 SELECT requirement_id FROM non_functional_requirements WHERE project_id = ?`,
		projectID, projectID); err != nil {
		return nil, fmt.Errorf("select cascade requirements: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return result, nil
}

// CreateFunctionalRequirement appends an FR to a project.
func (s *Store) CreateFunctionalRequirement(ctx context.Context, projectID, description string) (*FunctionalRequirement, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	fr := &FunctionalRequirement{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if fr.Description == "" {
		return nil, fmt.Errorf("requirement description required")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO functional_requirements (requirement_id, project_id, description, created_at)
                 VALUES (?, ?, ?, ?)`,
		fr.ID, fr.ProjectID, fr.Description, fr.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert functional requirement: %w", err)
	}
	return fr, nil
}

// CreateNonFunctionalRequirement appends an NFR to a project.
func (s *Store) CreateNonFunctionalRequirement(ctx context.Context, projectID, category, description string) (*NonFunctionalRequirement, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	nfr := &NonFunctionalRequirement{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if nfr.Description == "" {
		return nil, fmt.Errorf("requirement description required")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO non_functional_requirements (requirement_id, project_id, category, description, created_at)
                 VALUES (?, ?, ?, ?, ?)`,
		nfr.ID, nfr.ProjectID, nfr.Category, nfr.Description, nfr.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert non-functional requirement: %w", err)
	}
	return nfr, nil
}

// CreateSeedPair appends a curated example pair to the retrieval corpus.
func (s *Store) CreateSeedPair(ctx context.Context, frText, nfrText, source string, qualityChecked bool) (*SeedPair, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	pair := &SeedPair{
		ID:             uuid.NewString(),
		FRText:         strings.TrimSpace(frText),
		NFRText:        strings.TrimSpace(nfrText),
		Source:         strings.TrimSpace(source),
		QualityChecked: qualityChecked,
		CreatedAt:      time.Now().UTC(),
	}
	if pair.FRText == "" || pair.NFRText == "" {
		return nil, fmt.Errorf("seed pair requires both fr and nfr text")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO seed_pairs (pair_id, fr_text, nfr_text, source, quality_checked, created_at)
                 VALUES (?, ?, ?, ?, ?, ?)`,
		pair.ID, pair.FRText, pair.NFRText, pair.Source, pair.QualityChecked, pair.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert seed pair: %w", err)
	}
	return pair, nil
}

// CreateSnapshot records an immutable code snapshot for a commit.
func (s *Store) CreateSnapshot(ctx context.Context, snapshot Snapshot) (*Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	if strings.TrimSpace(snapshot.CommitID) == "" {
		snapshot.CommitID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	if snapshot.ParentCommitID != nil && strings.TrimSpace(*snapshot.ParentCommitID) == "" {
		snapshot.ParentCommitID = nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO code_snapshots (commit_id, project_id, parent_commit_id, developer_name, code_text, language, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.CommitID, snapshot.ProjectID, snapshot.ParentCommitID,
		snapshot.DeveloperName, snapshot.CodeText, snapshot.Language, snapshot.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return &snapshot, nil
}

// CreateSuggestion attaches a review suggestion to a commit.
func (s *Store) CreateSuggestion(ctx context.Context, suggestion Suggestion) (*Suggestion, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	if strings.TrimSpace(suggestion.Suggestion) == "" {
		return nil, fmt.Errorf("suggestion text required")
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO review_suggestions (commit_id, line_start, line_end, suggestion, severity, category, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		suggestion.CommitID, suggestion.LineStart, suggestion.LineEnd,
		suggestion.Suggestion, suggestion.Severity, suggestion.Category, suggestion.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("suggestion id: %w", err)
	}
	suggestion.ReviewID = id
	return &suggestion, nil
}

// InsertClassification records the disposition of a suggestion exactly once.
// The unique index on review_id makes the insert-if-absent atomic: concurrent
// classifiers race to a single row and everyone reads back the winner.
func (s *Store) InsertClassification(ctx context.Context, c Classification) (*Classification, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO review_classifications (review_id, category, disposition, recurring_issue, confidence, rationale, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT(review_id) DO NOTHING`,
		c.ReviewID, c.Category, c.Disposition, c.RecurringIssue, c.Confidence, c.Rationale, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert classification: %w", err)
	}
	stored, err := s.ClassificationForReview(ctx, c.ReviewID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// AppendRiskAssessment appends a row to the per-commit risk time series.
func (s *Store) AppendRiskAssessment(ctx context.Context, a RiskAssessment) (*RiskAssessment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO risk_assessments (project_id, commit_id, fr_completion_score, nfr_completion_score,
                 compilation_score, final_score, recommendation, rationale, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ProjectID, a.CommitID, a.FRScore, a.NFRScore, a.CompilationScore,
		a.FinalScore, a.Recommendation, a.Rationale, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert risk assessment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("assessment id: %w", err)
	}
	a.AssessmentID = id
	return &a, nil
}

// AppendMetric appends a named productivity metric value for a commit.
func (s *Store) AppendMetric(ctx context.Context, m ProductivityMetric) (*ProductivityMetric, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("metric name required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO productivity_metrics (commit_id, review_id, name, value, created_at)
                 VALUES (?, ?, ?, ?, ?)`,
		m.CommitID, m.ReviewID, m.Name, m.Value, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert metric: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("metric id: %w", err)
	}
	m.MetricID = id
	return &m, nil
}

// AppendSystemLog records an audit triple. Failures to audit are returned but
// never block the operation being audited.
func (s *Store) AppendSystemLog(ctx context.Context, component, action, detail string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("catalog store not initialised")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO system_logs (component, action, detail, created_at) VALUES (?, ?, ?, ?)`,
		component, action, detail, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert system log: %w", err)
	}
	return nil
}
