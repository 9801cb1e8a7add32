// File path: internal/api/metrics_handler.go
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Yoshani/team-xc7/internal/common"
)

// handleMetrics serves a commit's productivity metrics, either the full set or
// the append-only series for one named metric.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	commitID := strings.TrimSpace(r.URL.Query().Get("commit_id"))
	if commitID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing commit_id parameter"))
		return
	}
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		series, err := s.aggregator.Series(r.Context(), commitID, name)
		if err != nil {
			writeError(w, statusFor(err), fmt.Errorf("metric series: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"commit_id": commitID,
			"name":      name,
			"series":    series,
		})
		return
	}
	rows, err := s.store.MetricsForCommit(r.Context(), commitID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("list metrics: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commit_id": commitID,
		"metrics":   rows,
	})
}

func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("aggregator unavailable"))
		return
	}
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing project_id parameter"))
		return
	}
	summary, err := s.aggregator.Summarize(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("summarize project: %w", err))
		return
	}
	common.Logger().Debug("api: summary served",
		"project", projectID, "developers", len(summary.Developers))
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.AuditLog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}
