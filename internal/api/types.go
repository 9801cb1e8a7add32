// File path: internal/api/types.go
package api

// createProjectRequest names a new project.
type createProjectRequest struct {
	Name string `json:"name"`
}

type createRequirementRequest struct {
	Description string `json:"description"`
	// Category is only honoured for non-functional requirements; leaving it
	// empty creates a functional requirement instead.
	Category string `json:"category,omitempty"`
}

type ingestSeedPairRequest struct {
	FRText         string `json:"fr_text"`
	NFRText        string `json:"nfr_text"`
	Source         string `json:"source,omitempty"`
	QualityChecked bool   `json:"quality_checked,omitempty"`
}

type registerSnapshotRequest struct {
	CommitID       string  `json:"commit_id"`
	ProjectID      string  `json:"project_id"`
	ParentCommitID *string `json:"parent_commit_id,omitempty"`
	DeveloperName  string  `json:"developer_name"`
	CodeText       string  `json:"code_text"`
	Language       string  `json:"language,omitempty"`
	// RunPipeline triggers the full analysis pipeline after registration.
	RunPipeline bool `json:"run_pipeline,omitempty"`
}

type attachSuggestionRequest struct {
	LineStart  int    `json:"line_start"`
	LineEnd    int    `json:"line_end"`
	Suggestion string `json:"suggestion"`
	Severity   string `json:"severity,omitempty"`
	Category   string `json:"category,omitempty"`
}

type assessRiskRequest struct {
	ProjectID        string   `json:"project_id"`
	CommitID         string   `json:"commit_id"`
	FRScore          *float64 `json:"fr_completion_score"`
	NFRScore         *float64 `json:"nfr_completion_score"`
	CompilationScore *float64 `json:"compilation_score"`
}

type deleteProjectResponse struct {
	ProjectID          string `json:"project_id"`
	CommitsRemoved     int    `json:"commits_removed"`
	EmbeddingsReleased int    `json:"embeddings_released"`
}

type lineageResponse struct {
	CommitID  string   `json:"commit_id"`
	Ancestors []string `json:"ancestors"`
	Children  []string `json:"children"`
}
