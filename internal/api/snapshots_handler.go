// File path: internal/api/snapshots_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
)

func (s *Server) handleRegisterSnapshot(w http.ResponseWriter, r *http.Request) {
	var req registerSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project_id required"))
		return
	}
	if strings.TrimSpace(req.CodeText) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("code_text required"))
		return
	}
	snapshot, err := s.workflow.RegisterSnapshot(r.Context(), catalog.Snapshot{
		CommitID:       strings.TrimSpace(req.CommitID),
		ProjectID:      req.ProjectID,
		ParentCommitID: req.ParentCommitID,
		DeveloperName:  strings.TrimSpace(req.DeveloperName),
		CodeText:       req.CodeText,
		Language:       strings.TrimSpace(req.Language),
	})
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("register snapshot: %w", err))
		return
	}
	if !req.RunPipeline {
		writeJSON(w, http.StatusCreated, snapshot)
		return
	}
	state, err := s.workflow.RunPipeline(r.Context(), snapshot.CommitID)
	if err != nil {
		// The snapshot is already persisted; surface the pipeline state so
		// the caller can see which step failed.
		common.Logger().Warn("api: pipeline failed after registration",
			"commit", snapshot.CommitID, "error", err)
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"snapshot": snapshot,
		"pipeline": state,
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	snapshot, err := s.store.GetSnapshot(r.Context(), commitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("get snapshot: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	ancestors, err := s.tracker.Ancestors(commitID, 0)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("walk ancestors: %w", err))
		return
	}
	children, err := s.tracker.Children(commitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("list children: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, lineageResponse{
		CommitID:  commitID,
		Ancestors: ancestors,
		Children:  children,
	})
}

func (s *Server) handleCommitReviews(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	if _, err := s.store.GetSnapshot(r.Context(), commitID); err != nil {
		writeError(w, statusFor(err), fmt.Errorf("get snapshot: %w", err))
		return
	}
	suggestions, err := s.store.SuggestionsForCommit(r.Context(), commitID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list suggestions: %w", err))
		return
	}
	classifications, err := s.store.ClassificationsForCommit(r.Context(), commitID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list classifications: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commit_id":       commitID,
		"suggestions":     suggestions,
		"classifications": classifications,
	})
}

// handleAttachSuggestion records a human-authored review suggestion against a
// commit; it enters the same pending pool the generated ones do.
func (s *Server) handleAttachSuggestion(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	if _, err := s.store.GetSnapshot(r.Context(), commitID); err != nil {
		writeError(w, statusFor(err), fmt.Errorf("get snapshot: %w", err))
		return
	}
	var req attachSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Suggestion) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("suggestion text required"))
		return
	}
	if req.LineStart < 1 || req.LineEnd < req.LineStart {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid line range %d-%d", req.LineStart, req.LineEnd))
		return
	}
	stored, err := s.store.CreateSuggestion(r.Context(), catalog.Suggestion{
		CommitID:   commitID,
		LineStart:  req.LineStart,
		LineEnd:    req.LineEnd,
		Suggestion: strings.TrimSpace(req.Suggestion),
		Severity:   strings.TrimSpace(strings.ToLower(req.Severity)),
		Category:   strings.TrimSpace(strings.ToLower(req.Category)),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("persist suggestion: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// handleGenerateSuggestions runs the model-backed reviewer outside a full
// pipeline run.
func (s *Server) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.reviewer == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("reviewer unavailable"))
		return
	}
	commitID := chi.URLParam(r, "commitID")
	suggestions, err := s.reviewer.Review(r.Context(), commitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("generate suggestions: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commit_id":   commitID,
		"suggestions": suggestions,
	})
}

func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	common.Logger().Info("api: pipeline requested", "commit", commitID)
	state, err := s.workflow.RunPipeline(r.Context(), commitID)
	if err != nil {
		if state == nil {
			writeError(w, statusFor(err), fmt.Errorf("run pipeline: %w", err))
			return
		}
		// Failed mid-run: the state carries the failing step and message.
		writeJSON(w, http.StatusUnprocessableEntity, state)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	commitID := chi.URLParam(r, "commitID")
	state, ok := s.workflow.Run(commitID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no pipeline run recorded for %s", commitID))
		return
	}
	writeJSON(w, http.StatusOK, state)
}
