package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/common"
	"example.com/cansubmit/internal/report"
	"example.com/cansubmit/internal/session"
	"example.com/cansubmit/internal/store"
)

// Server coordinates the catalog endpoints and the submission intake.
type Server struct {
	catalog     *store.Catalog
	catalogPath string
	submissions *store.SubmissionLog
	receiptDir  string
	metrics     *common.Metrics
}

func (s *Server) handleMakes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.requireCatalog(w) {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Makes()))
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.requireCatalog(w) {
		return
	}
	makeName := strings.TrimSpace(r.URL.Query().Get("make"))
	if makeName == "" {
		writeDetail(w, http.StatusBadRequest, "make is required")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Models(makeName)))
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.requireCatalog(w) {
		return
	}
	makeName := strings.TrimSpace(r.URL.Query().Get("make"))
	modelName := strings.TrimSpace(r.URL.Query().Get("model"))
	if makeName == "" || modelName == "" {
		writeDetail(w, http.StatusBadRequest, "make and model are required")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Generations(makeName, modelName)))
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.requireCatalog(w) {
		return
	}
	query := r.URL.Query().Get("query")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeDetail(w, http.StatusBadRequest, "invalid limit %q", raw)
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Parameters(query, limit)))
}

// The metadata endpoints degrade to empty lists when the catalog is
// unavailable; consumers treat them as optional.
func (s *Server) handleBusTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		s.metrics.IncDegraded()
		writeJSON(w, http.StatusOK, []catalog.BusType{})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.BusTypes()))
}

func (s *Server) handleCanBuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		s.metrics.IncDegraded()
		writeJSON(w, http.StatusOK, []catalog.CanBus{})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.CanBuses()))
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		s.metrics.IncDegraded()
		writeJSON(w, http.StatusOK, []catalog.Dimension{})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.catalog.Dimensions()))
}

func (s *Server) handleGenerationParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("generation_id")
	generationID, err := strconv.Atoi(raw)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid generation_id %q", raw)
		return
	}
	var nameOf func(int) (string, bool)
	if s.catalog != nil {
		nameOf = s.catalog.ParameterName
	}
	usage, err := s.submissions.Usage(generationID, nameOf)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "read submissions: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(usage))
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload session.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json: %v", err)
		return
	}
	if err := validatePayload(payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "%v", err)
		return
	}
	rec, err := s.submissions.Append(payload)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "store submission: %v", err)
		return
	}
	s.metrics.IncSubmission()
	s.writeReceipt(rec)
	resp := struct {
		ID    int64 `json:"id"`
		Saved int   `json:"saved"`
	}{ID: rec.ID, Saved: len(rec.Payload.Items)}
	writeJSON(w, http.StatusCreated, resp)
}

// writeReceipt renders the receipt PDF for an accepted submission. Receipt
// failures must not fail the submission itself.
func (s *Server) writeReceipt(rec store.Record) {
	if s.receiptDir == "" {
		return
	}
	rc, err := report.FromRecord(rec)
	if err != nil {
		common.Logf("receipt for submission %d: %v", rec.ID, err)
		return
	}
	out := filepath.Join(s.receiptDir, fmt.Sprintf("receipt-%d.pdf", rec.ID))
	if err := report.SaveReceiptPDF(rc, out); err != nil {
		common.Logf("receipt for submission %d: %v", rec.ID, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "ok"
	if s.catalog == nil {
		status = "no_catalog"
	}
	resp := struct {
		Status      string                 `json:"status"`
		CatalogPath string                 `json:"catalog_path"`
		Catalog     bool                   `json:"catalog"`
		Submissions string                 `json:"submissions"`
		Metrics     common.MetricsSnapshot `json:"metrics"`
	}{
		Status:      status,
		CatalogPath: s.catalogPath,
		Catalog:     s.catalog != nil,
		Submissions: s.submissions.Path(),
		Metrics:     s.metrics.Snapshot(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func validatePayload(p session.Payload) error {
	if len(p.Items) == 0 {
		return fmt.Errorf("no items submitted")
	}
	for i, item := range p.Items {
		if strings.TrimSpace(item.CanID) == "" {
			return fmt.Errorf("item %d: can_id is required", i+1)
		}
		if item.Endian != session.EndianLittle && item.Endian != session.EndianBig {
			return fmt.Errorf("item %d: endian must be little or big", i+1)
		}
		if item.ParameterID == nil && strings.TrimSpace(item.ParameterName) == "" {
			return fmt.Errorf("item %d: parameter_id or parameter_name is required", i+1)
		}
	}
	return nil
}

func (s *Server) requireCatalog(w http.ResponseWriter) bool {
	if s.catalog != nil {
		return true
	}
	writeDetail(w, http.StatusServiceUnavailable,
		"Catalog not found at: %s. Provide a catalog data file or fix the configured path.", s.catalogPath)
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, struct {
		Detail string `json:"detail"`
	}{Detail: fmt.Sprintf(format, args...)})
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
