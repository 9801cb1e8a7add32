// File path: internal/api/risk_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/risk"
)

// handleAssessRisk blends caller-supplied sub-scores into an appended
// assessment. Missing sub-scores are rejected rather than defaulted; partial
// evidence must not look like a full evaluation.
func (s *Server) handleAssessRisk(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("risk synthesizer unavailable"))
		return
	}
	var req assessRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.CommitID) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project_id and commit_id required"))
		return
	}
	// Assessments foreign-key to code_snapshots; resolve the commit up front
	// so unknown ids surface as 404 rather than a constraint failure.
	snapshot, err := s.store.GetSnapshot(r.Context(), req.CommitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("resolve commit: %w", err))
		return
	}
	if snapshot.ProjectID != req.ProjectID {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("commit %s belongs to project %s", req.CommitID, snapshot.ProjectID))
		return
	}
	assessment, err := s.synth.Assess(r.Context(), req.ProjectID, req.CommitID, risk.Inputs{
		FRScore:          req.FRScore,
		NFRScore:         req.NFRScore,
		CompilationScore: req.CompilationScore,
	})
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("assess risk: %w", err))
		return
	}
	common.Logger().Info("api: risk assessed",
		"commit", req.CommitID, "score", assessment.FinalScore, "recommendation", assessment.Recommendation)
	writeJSON(w, http.StatusCreated, assessment)
}

func (s *Server) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	commitID := strings.TrimSpace(r.URL.Query().Get("commit_id"))
	if commitID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing commit_id parameter"))
		return
	}
	if r.URL.Query().Get("latest") == "true" {
		latest, err := s.store.LatestRiskAssessment(r.Context(), commitID)
		if err != nil {
			writeError(w, statusFor(err), fmt.Errorf("latest assessment: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, latest)
		return
	}
	history, err := s.store.RiskHistory(r.Context(), commitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("risk history: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commit_id":   commitID,
		"assessments": history,
	})
}
