// File path: internal/catalog/queries.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound reports a lookup that matched no row.
var ErrNotFound = errors.New("catalog: not found")

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, projectID string) (*Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var project Project
	err := s.db.GetContext(ctx, &project,
		`SELECT project_id, name, created_at FROM projects WHERE project_id = ?`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	return &project, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var projects []Project
	if err := s.db.SelectContext(ctx, &projects,
		`SELECT project_id, name, created_at FROM projects ORDER BY created_at, project_id`); err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	return projects, nil
}

// ListFunctionalRequirements returns a project's FRs in insertion order.
func (s *Store) ListFunctionalRequirements(ctx context.Context, projectID string) ([]FunctionalRequirement, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var reqs []FunctionalRequirement
	if err := s.db.SelectContext(ctx, &reqs,
		`SELECT requirement_id, project_id, description, created_at
                 FROM functional_requirements WHERE project_id = ?
                 ORDER BY created_at, requirement_id`, projectID); err != nil {
		return nil, fmt.Errorf("select functional requirements: %w", err)
	}
	return reqs, nil
}

// ListNonFunctionalRequirements returns a project's NFRs in insertion order.
func (s *Store) ListNonFunctionalRequirements(ctx context.Context, projectID string) ([]NonFunctionalRequirement, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var reqs []NonFunctionalRequirement
	if err := s.db.SelectContext(ctx, &reqs,
		`SELECT requirement_id, project_id, category, description, created_at
                 FROM non_functional_requirements WHERE project_id = ?
                 ORDER BY created_at, requirement_id`, projectID); err != nil {
		return nil, fmt.Errorf("select non-functional requirements: %w", err)
	}
	return reqs, nil
}

// ListSeedPairs returns the full seed-pair corpus, oldest first.
func (s *Store) ListSeedPairs(ctx context.Context) ([]SeedPair, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var pairs []SeedPair
	if err := s.db.SelectContext(ctx, &pairs,
		`SELECT pair_id, fr_text, nfr_text, source, quality_checked, created_at
                 FROM seed_pairs ORDER BY created_at, pair_id`); err != nil {
		return nil, fmt.Errorf("select seed pairs: %w", err)
	}
	return pairs, nil
}

// GetSeedPair fetches a seed pair by id.
func (s *Store) GetSeedPair(ctx context.Context, pairID string) (*SeedPair, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var pair SeedPair
	err := s.db.GetContext(ctx, &pair,
		`SELECT pair_id, fr_text, nfr_text, source, quality_checked, created_at
                 FROM seed_pairs WHERE pair_id = ?`, pairID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select seed pair: %w", err)
	}
	return &pair, nil
}

// GetSnapshot fetches a commit snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, commitID string) (*Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var snapshot Snapshot
	err := s.db.GetContext(ctx, &snapshot,
		`SELECT commit_id, project_id, parent_commit_id, developer_name, code_text, language, created_at
                 FROM code_snapshots WHERE commit_id = ?`, commitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns a project's snapshots in commit order.
func (s *Store) ListSnapshots(ctx context.Context, projectID string) ([]Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var snapshots []Snapshot
	if err := s.db.SelectContext(ctx, &snapshots,
		`SELECT commit_id, project_id, parent_commit_id, developer_name, code_text, language, created_at
                 FROM code_snapshots WHERE project_id = ?
                 ORDER BY created_at, commit_id`, projectID); err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	return snapshots, nil
}

// GetSuggestion fetches a review suggestion by id.
func (s *Store) GetSuggestion(ctx context.Context, reviewID int64) (*Suggestion, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var suggestion Suggestion
	err := s.db.GetContext(ctx, &suggestion,
		`SELECT review_id, commit_id, line_start, line_end, suggestion, severity, category, created_at
                 FROM review_suggestions WHERE review_id = ?`, reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select suggestion: %w", err)
	}
	return &suggestion, nil
}

// SuggestionsForCommit returns all suggestions recorded against a commit.
func (s *Store) SuggestionsForCommit(ctx context.Context, commitID string) ([]Suggestion, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var suggestions []Suggestion
	if err := s.db.SelectContext(ctx, &suggestions,
		`SELECT review_id, commit_id, line_start, line_end, suggestion, severity, category, created_at
                 FROM review_suggestions WHERE commit_id = ?
                 ORDER BY review_id`, commitID); err != nil {
		return nil, fmt.Errorf("select suggestions: %w", err)
	}
	return suggestions, nil
}

// PendingSuggestions returns a commit's suggestions that have no
// classification yet.
func (s *Store) PendingSuggestions(ctx context.Context, commitID string) ([]Suggestion, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var suggestions []Suggestion
	if err := s.db.SelectContext(ctx, &suggestions,
		`SELECT rs.review_id, rs.commit_id, rs.line_start, rs.line_end,
                        rs.suggestion, rs.severity, rs.category, rs.created_at
                 FROM review_suggestions rs
                 LEFT JOIN review_classifications rc ON rc.review_id = rs.review_id
                 WHERE rs.commit_id = ? AND rc.classification_id IS NULL
                 ORDER BY rs.review_id`, commitID); err != nil {
		return nil, fmt.Errorf("select pending suggestions: %w", err)
	}
	return suggestions, nil
}

// ClassificationForReview fetches the single classification of a suggestion.
func (s *Store) ClassificationForReview(ctx context.Context, reviewID int64) (*Classification, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var c Classification
	err := s.db.GetContext(ctx, &c,
		`SELECT classification_id, review_id, category, disposition, recurring_issue,
                        confidence, rationale, created_at
                 FROM review_classifications WHERE review_id = ?`, reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select classification: %w", err)
	}
	return &c, nil
}

// ClassificationsForCommit returns all classifications for a commit's
// suggestions.
func (s *Store) ClassificationsForCommit(ctx context.Context, commitID string) ([]Classification, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var classifications []Classification
	if err := s.db.SelectContext(ctx, &classifications,
		`SELECT rc.classification_id, rc.review_id, rc.category, rc.disposition,
                        rc.recurring_issue, rc.confidence, rc.rationale, rc.created_at
                 FROM review_classifications rc
                 JOIN review_suggestions rs ON rs.review_id = rc.review_id
                 WHERE rs.commit_id = ?
                 ORDER BY rc.review_id`, commitID); err != nil {
		return nil, fmt.Errorf("select commit classifications: %w", err)
	}
	return classifications, nil
}

// ClassificationsForProject joins classifications with their suggestion and
// developer context across every commit of a project.
func (s *Store) ClassificationsForProject(ctx context.Context, projectID string) ([]ClassificationRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var records []ClassificationRecord
	if err := s.db.SelectContext(ctx, &records,
		`SELECT rc.classification_id, rc.review_id, rc.category, rc.disposition,
                        rc.recurring_issue, rc.confidence, rc.rationale, rc.created_at,
                        rs.commit_id, rs.category AS suggestion_category, rs.severity,
                        cs.developer_name, cs.created_at AS snapshot_created_at
                 FROM review_classifications rc
                 JOIN review_suggestions rs ON rs.review_id = rc.review_id
                 JOIN code_snapshots cs ON cs.commit_id = rs.commit_id
                 WHERE cs.project_id = ?
                 ORDER BY rc.created_at, rc.review_id`, projectID); err != nil {
		return nil, fmt.Errorf("select project classifications: %w", err)
	}
	return records, nil
}

// CountCategorySeverity counts how many classified suggestions with the given
// suggestion category and severity already exist in the project, excluding the
// review currently being classified. Recurrence tagging thresholds on it.
func (s *Store) CountCategorySeverity(ctx context.Context, projectID, category, severity string, excludeReviewID int64) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("catalog store not initialised")
	}
	var count int
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*)
                 FROM review_classifications rc
                 JOIN review_suggestions rs ON rs.review_id = rc.review_id
                 JOIN code_snapshots cs ON cs.commit_id = rs.commit_id
                 WHERE cs.project_id = ? AND rs.category = ? AND rs.severity = ?
                   AND rc.review_id != ?`,
		projectID, category, severity, excludeReviewID); err != nil {
		return 0, fmt.Errorf("count category severity: %w", err)
	}
	return count, nil
}

// RiskHistory returns the append-only assessment series for a commit, oldest
// first.
func (s *Store) RiskHistory(ctx context.Context, commitID string) ([]RiskAssessment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var assessments []RiskAssessment
	if err := s.db.SelectContext(ctx, &assessments,
		`SELECT assessment_id, project_id, commit_id, fr_completion_score, nfr_completion_score,
                        compilation_score, final_score, recommendation, rationale, created_at
                 FROM risk_assessments WHERE commit_id = ?
                 ORDER BY assessment_id`, commitID); err != nil {
		return nil, fmt.Errorf("select risk history: %w", err)
	}
	return assessments, nil
}

// LatestRiskAssessment returns the newest assessment for a commit.
func (s *Store) LatestRiskAssessment(ctx context.Context, commitID string) (*RiskAssessment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var assessment RiskAssessment
	err := s.db.GetContext(ctx, &assessment,
		`SELECT assessment_id, project_id, commit_id, fr_completion_score, nfr_completion_score,
                        compilation_score, final_score, recommendation, rationale, created_at
                 FROM risk_assessments WHERE commit_id = ?
                 ORDER BY assessment_id DESC LIMIT 1`, commitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select latest risk assessment: %w", err)
	}
	return &assessment, nil
}

// MetricSeries returns the append-only series of a named metric for a commit.
func (s *Store) MetricSeries(ctx context.Context, commitID, name string) ([]ProductivityMetric, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var metrics []ProductivityMetric
	if err := s.db.SelectContext(ctx, &metrics,
		`SELECT metric_id, commit_id, review_id, name, value, created_at
                 FROM productivity_metrics WHERE commit_id = ? AND name = ?
                 ORDER BY metric_id`, commitID, name); err != nil {
		return nil, fmt.Errorf("select metric series: %w", err)
	}
	return metrics, nil
}

// MetricsForCommit returns all metric rows recorded against a commit.
func (s *Store) MetricsForCommit(ctx context.Context, commitID string) ([]ProductivityMetric, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog store not initialised")
	}
	var metrics []ProductivityMetric
	if err := s.db.SelectContext(ctx, &metrics,
		`SELECT metric_id, commit_id, review_id, name, value, created_at
                 FROM productivity_metrics WHERE commit_id = ?
                 ORDER BY metric_id`, commitID); err != nil {
		return nil, fmt.Errorf("select commit metrics: %w", err)
	}
	return metrics, nil
}
