// File path: internal/catalog/types.go
package catalog

import "time"

// Project is the root aggregate; every analytical entity traces back to one.
type Project struct {
	ID        string    `db:"project_id" json:"project_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FunctionalRequirement is an FR owned by a project.
type FunctionalRequirement struct {
	ID          string    `db:"requirement_id" json:"requirement_id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NonFunctionalRequirement is an NFR owned by a project, with a free-text
// category such as "Performance" or "Security".
type NonFunctionalRequirement struct {
	ID          string    `db:"requirement_id" json:"requirement_id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SeedPair is a curated (FR, NFR) example in the append-only retrieval corpus.
type SeedPair struct {
	ID             string    `db:"pair_id" json:"pair_id"`
	FRText         string    `db:"fr_text" json:"fr_text"`
	NFRText        string    `db:"nfr_text" json:"nfr_text"`
	Source         string    `db:"source" json:"source"`
	QualityChecked bool      `db:"quality_checked" json:"quality_checked"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Snapshot is an immutable per-commit code snapshot. ParentCommitID is nil for
// roots; the parent chain forms a forest per project.
type Snapshot struct {
	CommitID       string    `db:"commit_id" json:"commit_id"`
	ProjectID      string    `db:"project_id" json:"project_id"`
	ParentCommitID *string   `db:"parent_commit_id" json:"parent_commit_id,omitempty"`
	DeveloperName  string    `db:"developer_name" json:"developer_name"`
	CodeText       string    `db:"code_text" json:"code_text"`
	Language       string    `db:"language" json:"language"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Suggestion is an automated code-review suggestion attached to a commit.
type Suggestion struct {
	ReviewID   int64     `db:"review_id" json:"review_id"`
	CommitID   string    `db:"commit_id" json:"commit_id"`
	LineStart  int       `db:"line_start" json:"line_start"`
	LineEnd    int       `db:"line_end" json:"line_end"`
	Suggestion string    `db:"suggestion" json:"suggestion"`
	Severity   string    `db:"severity" json:"severity"`
	Category   string    `db:"category" json:"category"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Classification is the observed disposition of a suggestion, exactly one per
// review (enforced by a unique index).
type Classification struct {
	ClassificationID int64     `db:"classification_id" json:"classification_id"`
	ReviewID         int64     `db:"review_id" json:"review_id"`
	Category         string    `db:"category" json:"category"`
	Disposition      string    `db:"disposition" json:"disposition"`
	RecurringIssue   string    `db:"recurring_issue" json:"recurring_issue,omitempty"`
	Confidence       float64   `db:"confidence" json:"confidence"`
	Rationale        string    `db:"rationale" json:"rationale"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// RiskAssessment is one append-only row of the per-commit risk time series.
type RiskAssessment struct {
	AssessmentID     int64     `db:"assessment_id" json:"assessment_id"`
	ProjectID        string    `db:"project_id" json:"project_id"`
	CommitID         string    `db:"commit_id" json:"commit_id"`
	FRScore          float64   `db:"fr_completion_score" json:"fr_completion_score"`
	NFRScore         float64   `db:"nfr_completion_score" json:"nfr_completion_score"`
	CompilationScore float64   `db:"compilation_score" json:"compilation_score"`
	FinalScore       float64   `db:"final_score" json:"final_score"`
	Recommendation   string    `db:"recommendation" json:"recommendation"`
	Rationale        string    `db:"rationale" json:"rationale"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ProductivityMetric is a named/valued fact for a commit, optionally tied to a
// specific review. Recomputation appends new rows rather than overwriting.
type ProductivityMetric struct {
	MetricID  int64     `db:"metric_id" json:"metric_id"`
	CommitID  string    `db:"commit_id" json:"commit_id"`
	ReviewID  *int64    `db:"review_id" json:"review_id"`
	Name      string    `db:"name" json:"name"`
	Value     float64   `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassificationRecord joins a classification with its suggestion and the
// commit's developer for project-level summaries and rollups.
type ClassificationRecord struct {
	Classification
	CommitID           string    `db:"commit_id" json:"commit_id"`
	SuggestionCategory string    `db:"suggestion_category" json:"suggestion_category"`
	Severity           string    `db:"severity" json:"severity"`
	DeveloperName      string    `db:"developer_name" json:"developer_name"`
	SnapshotCreatedAt  time.Time `db:"snapshot_created_at" json:"snapshot_created_at"`
}

// CascadeResult reports the reference ids removed by a project deletion so the
// vector store can garbage-collect embeddings that are not foreign-keyed.
type CascadeResult struct {
	CommitIDs      []string
	RequirementIDs []string
}
