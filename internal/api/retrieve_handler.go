// File path: internal/api/retrieve_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Yoshani/team-xc7/internal/common"
)

func (s *Server) handleIngestSeedPair(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("retriever unavailable"))
		return
	}
	var req ingestSeedPairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.FRText) == "" || strings.TrimSpace(req.NFRText) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("fr_text and nfr_text required"))
		return
	}
	pair, err := s.retriever.Ingest(r.Context(), req.FRText, req.NFRText, req.Source, req.QualityChecked)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("ingest seed pair: %w", err))
		return
	}
	common.Logger().Info("api: seed pair ingested", "pair", pair.ID, "source", pair.Source)
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleListSeedPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.store.ListSeedPairs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list seed pairs: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pairs": pairs})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	if s.retriever == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("retriever unavailable"))
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing q parameter"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid k parameter %q", v))
			return
		}
		limit = parsed
	}
	examples, err := s.retriever.Retrieve(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("retrieve examples: %w", err))
		return
	}
	common.Logger().Debug("api: retrieval served", "query", query, "results", len(examples))
	writeJSON(w, http.StatusOK, map[string]interface{}{"examples": examples})
}
