package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	audittrail "liquorum/contexts/insolvency-core/audit-trail-service"
	auditerrors "liquorum/contexts/insolvency-core/audit-trail-service/domain/errors"
	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	ledgererrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	caseregistry "liquorum/contexts/insolvency-core/case-registry-service"
	registryerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	registryhttp "liquorum/contexts/insolvency-core/case-registry-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "liquorum/internal/platform/httpserver/docs"
)

const actorHeader = "X-Actor-ID"

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry caseregistry.Module
	ledger   caseledger.Module
	audit    audittrail.Module
	swagger  bool
}

func New(
	registry caseregistry.Module,
	ledger caseledger.Module,
	audit audittrail.Module,
	logger *slog.Logger,
	addr string,
	swaggerUI bool,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
		ledger:   ledger,
		audit:    audit,
		swagger:  swaggerUI,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	if s.swagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	s.mux.HandleFunc("POST /v1/cases", s.handleCreateCase)
	s.mux.HandleFunc("GET /v1/cases", s.handleListCases)
	s.mux.HandleFunc("GET /v1/cases/{case_id}", s.handleGetCase)
	s.mux.HandleFunc("POST /v1/cases/{case_id}/transition", s.handleTransitionCase)
	s.mux.HandleFunc("POST /v1/cases/{case_id}/stage", s.handleSetCaseStage)
	s.mux.HandleFunc("DELETE /v1/cases/{case_id}", s.handleDeleteCase)

	s.mux.HandleFunc("POST /v1/creditors", s.handleCreateCreditor)
	s.mux.HandleFunc("GET /v1/creditors", s.handleListCreditors)
	s.mux.HandleFunc("GET /v1/creditors/{creditor_id}", s.handleGetCreditor)
	s.mux.HandleFunc("PATCH /v1/creditors/{creditor_id}", s.handleUpdateCreditor)
	s.mux.HandleFunc("DELETE /v1/creditors/{creditor_id}", s.handleDeleteCreditor)

	s.registerLedgerRoutes()
	s.registerAuditRoutes()
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.CreateCaseHandler(r.Context(), actor(r), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.ListCasesHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.GetCaseHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionCase(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.TransitionCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.TransitionCaseHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetCaseStage(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.SetCaseStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.SetCaseStageHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Handler.DeleteCaseHandler(r.Context(), r.PathValue("case_id"), actor(r)); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCreditor(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.CreateCreditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.CreateCreditorHandler(r.Context(), actor(r), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCreditors(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.ListCreditorsHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCreditor(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.GetCreditorHandler(r.Context(), r.PathValue("creditor_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCreditor(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.UpdateCreditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.UpdateCreditorHandler(r.Context(), r.PathValue("creditor_id"), actor(r), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCreditor(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Handler.DeleteCreditorHandler(r.Context(), r.PathValue("creditor_id"), actor(r)); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, registryerrors.ErrCaseClosed):
		writeRegistryError(w, http.StatusBadRequest, "case_closed", err.Error())
	case errors.Is(err, registryerrors.ErrCaseNotFound):
		writeRegistryError(w, http.StatusNotFound, "case_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrCreditorNotFound):
		writeRegistryError(w, http.StatusNotFound, "creditor_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrDuplicateReference):
		writeRegistryError(w, http.StatusConflict, "duplicate_reference", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidTransition):
		writeRegistryError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, registryerrors.ErrCreditorInUse):
		writeRegistryError(w, http.StatusConflict, "creditor_in_use", err.Error())
	case errors.Is(err, registryerrors.ErrConflict):
		writeRegistryError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(actorHeader))
}

// ledgerDomainError is shared by the ledger route handlers.
func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ledgererrors.ErrCaseClosed):
		writeLedgerError(w, http.StatusBadRequest, "case_closed", err.Error())
	case errors.Is(err, ledgererrors.ErrCaseNotFound):
		writeLedgerError(w, http.StatusNotFound, "case_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrCreditorNotFound):
		writeLedgerError(w, http.StatusNotFound, "creditor_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrClaimNotFound):
		writeLedgerError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDistributionNotFound):
		writeLedgerError(w, http.StatusNotFound, "distribution_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateClaim):
		writeLedgerError(w, http.StatusConflict, "duplicate_claim", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidTransition):
		writeLedgerError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidRound):
		writeLedgerError(w, http.StatusConflict, "invalid_round", err.Error())
	case errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientFunds):
		writeLedgerError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, ledgererrors.ErrNoAdmittedClaims):
		writeLedgerError(w, http.StatusUnprocessableEntity, "no_admitted_claims", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuditDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrInvalidInput):
		writeAuditError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, auditerrors.ErrInvalidCursor):
		writeAuditError(w, http.StatusBadRequest, "invalid_cursor", err.Error())
	default:
		writeAuditError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
