package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	auditapplication "liquorum/contexts/insolvency-core/audit-trail-service/application"
	audithttp "liquorum/contexts/insolvency-core/audit-trail-service/transport/http"
)

func (s *Server) registerAuditRoutes() {
	s.mux.HandleFunc("GET /v1/activity", s.handleGlobalActivity)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/activity", s.handleCaseActivity)
	s.mux.HandleFunc("POST /v1/cases/{case_id}/notes", s.handleRecordNote)
}

func (s *Server) handleGlobalActivity(w http.ResponseWriter, r *http.Request) {
	req, ok := historyRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.audit.Handler.HistoryHandler(r.Context(), req)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCaseActivity(w http.ResponseWriter, r *http.Request) {
	req, ok := historyRequest(w, r)
	if !ok {
		return
	}
	req.CaseID = r.PathValue("case_id")
	resp, err := s.audit.Handler.HistoryHandler(r.Context(), req)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordNote(w http.ResponseWriter, r *http.Request) {
	var req audithttp.RecordNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuditError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.audit.Handler.RecordNoteHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func historyRequest(w http.ResponseWriter, r *http.Request) (auditapplication.HistoryRequest, bool) {
	query := r.URL.Query()
	req := auditapplication.HistoryRequest{
		EntityType: query.Get("entity_type"),
		EntityID:   query.Get("entity_id"),
		Action:     query.Get("action"),
		Cursor:     query.Get("cursor"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeAuditError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return auditapplication.HistoryRequest{}, false
		}
		req.Limit = limit
	}
	if sinceRaw := query.Get("since"); sinceRaw != "" {
		since, err := time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			writeAuditError(w, http.StatusBadRequest, "invalid_since", "since must be an RFC 3339 timestamp")
			return auditapplication.HistoryRequest{}, false
		}
		req.Since = &since
	}
	return req, true
}

func writeAuditError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
