// File path: internal/api/projects_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/Yoshani/team-xc7/internal/common"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project name required"))
		return
	}
	project, err := s.store.CreateProject(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create project: %w", err))
		return
	}
	common.Logger().Info("api: project created", "project", project.ID, "name", name)
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list projects: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("get project: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleDeleteProject cascades through the catalog, then releases the lineage
// nodes and any embeddings that referenced the removed rows. The vector index
// has no foreign keys, so the cascade result drives the cleanup.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	cascade, err := s.store.DeleteProject(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("delete project: %w", err))
		return
	}
	s.tracker.Forget(cascade.CommitIDs)
	released := 0
	if s.index != nil {
		for _, refID := range cascade.RequirementIDs {
			s.index.RemoveRef(refID)
			released++
		}
	}
	common.Logger().Info("api: project deleted",
		"project", projectID, "commits", len(cascade.CommitIDs), "embeddings", released)
	if err := s.store.AppendSystemLog(r.Context(), "api", "project_deleted", projectID); err != nil {
		common.Logger().Warn("api: audit write failed", "error", err)
	}
	writeJSON(w, http.StatusOK, deleteProjectResponse{
		ProjectID:          projectID,
		CommitsRemoved:     len(cascade.CommitIDs),
		EmbeddingsReleased: released,
	})
}

func (s *Server) handleCreateRequirement(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	var req createRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("description required"))
		return
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		nonFunctional, err := s.store.CreateNonFunctionalRequirement(r.Context(), projectID, category, req.Description)
		if err != nil {
			writeError(w, statusFor(err), fmt.Errorf("create non-functional requirement: %w", err))
			return
		}
		writeJSON(w, http.StatusCreated, nonFunctional)
		return
	}
	functional, err := s.store.CreateFunctionalRequirement(r.Context(), projectID, req.Description)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("create requirement: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, functional)
}

func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	requirements, err := s.store.ListFunctionalRequirements(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("list requirements: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requirements": requirements})
}

func (s *Server) handleListNFRs(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	requirements, err := s.store.ListNonFunctionalRequirements(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("list non-functional requirements: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requirements": requirements})
}

func (s *Server) handleGenerateNFRs(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("nfr generator unavailable"))
		return
	}
	projectID := chi.URLParam(r, "projectID")
	common.Logger().Info("api: nfr generation requested", "project", projectID)
	generated, err := s.generator.Generate(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("generate non-functional requirements: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project_id":   projectID,
		"generated":    len(generated),
		"requirements": generated,
	})
}

func (s *Server) handleProjectClassifications(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	records, err := s.store.ClassificationsForProject(r.Context(), projectID)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("list classifications: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"classifications": records})
}
