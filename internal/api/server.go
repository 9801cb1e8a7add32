// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/lineage"
	"github.com/Yoshani/team-xc7/internal/metrics"
	"github.com/Yoshani/team-xc7/internal/nfr"
	"github.com/Yoshani/team-xc7/internal/retriever"
	"github.com/Yoshani/team-xc7/internal/risk"
	"github.com/Yoshani/team-xc7/internal/vector"
	"github.com/Yoshani/team-xc7/internal/workflow"
)

// Server exposes the project catalog, the retrieval corpus, and the commit
// analysis pipeline over HTTP.
type Server struct {
	router     chi.Router
	store      *catalog.Store
	index      vector.Store
	tracker    *lineage.Tracker
	retriever  *retriever.Retriever
	generator  *nfr.Generator
	synth      *risk.Synthesizer
	aggregator *metrics.Aggregator
	reviewer   workflow.Reviewer
	workflow   *workflow.Manager
}

func NewServer(store *catalog.Store, index vector.Store, tracker *lineage.Tracker,
	retr *retriever.Retriever, generator *nfr.Generator, synth *risk.Synthesizer,
	aggregator *metrics.Aggregator, reviewer workflow.Reviewer, manager *workflow.Manager) (*Server, error) {
	logger := common.Logger()
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("lineage tracker required")
	}
	if manager == nil {
		return nil, fmt.Errorf("workflow manager required")
	}
	srv := &Server{
		router:     chi.NewRouter(),
		store:      store,
		index:      index,
		tracker:    tracker,
		retriever:  retr,
		generator:  generator,
		synth:      synth,
		aggregator: aggregator,
		reviewer:   reviewer,
		workflow:   manager,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/projects", s.handleCreateProject)
	s.router.Get("/v1/projects", s.handleListProjects)
	s.router.Get("/v1/projects/{projectID}", s.handleGetProject)
	s.router.Delete("/v1/projects/{projectID}", s.handleDeleteProject)
	s.router.Post("/v1/projects/{projectID}/requirements", s.handleCreateRequirement)
	s.router.Get("/v1/projects/{projectID}/requirements", s.handleListRequirements)
	s.router.Get("/v1/projects/{projectID}/nfrs", s.handleListNFRs)
	s.router.Post("/v1/projects/{projectID}/nfrs/generate", s.handleGenerateNFRs)
	s.router.Get("/v1/projects/{projectID}/classifications", s.handleProjectClassifications)

	s.router.Post("/v1/seed-pairs", s.handleIngestSeedPair)
	s.router.Get("/v1/seed-pairs", s.handleListSeedPairs)
	s.router.Get("/v1/retrieve", s.handleRetrieve)

	s.router.Post("/v1/snapshots", s.handleRegisterSnapshot)
	s.router.Get("/v1/snapshots/{commitID}", s.handleGetSnapshot)
	s.router.Get("/v1/snapshots/{commitID}/lineage", s.handleLineage)
	s.router.Get("/v1/snapshots/{commitID}/reviews", s.handleCommitReviews)
	s.router.Post("/v1/snapshots/{commitID}/reviews", s.handleAttachSuggestion)
	s.router.Post("/v1/snapshots/{commitID}/reviews/suggest", s.handleGenerateSuggestions)
	s.router.Post("/v1/snapshots/{commitID}/pipeline", s.handleRunPipeline)
	s.router.Get("/v1/snapshots/{commitID}/pipeline", s.handlePipelineStatus)

	s.router.Post("/v1/risk/assess", s.handleAssessRisk)
	s.router.Get("/v1/risk/history", s.handleRiskHistory)

	s.router.Get("/v1/metrics", s.handleMetrics)
	s.router.Get("/v1/metrics/summary", s.handleMetricsSummary)

	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain sentinel errors onto HTTP statuses so handlers do not
// repeat the same errors.Is ladder.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, lineage.ErrUnknownCommit):
		return http.StatusNotFound
	case errors.Is(err, lineage.ErrOrphanCommit), errors.Is(err, lineage.ErrDuplicateCommit):
		return http.StatusConflict
	case errors.Is(err, risk.ErrIncompleteInputs), errors.Is(err, risk.ErrScoreOutOfRange),
		errors.Is(err, risk.ErrInvalidWeights):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
