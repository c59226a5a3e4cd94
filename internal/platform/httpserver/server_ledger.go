package httpserver

import (
	"encoding/json"
	"net/http"

	ledgerhttp "liquorum/contexts/insolvency-core/case-ledger-service/transport/http"
)

func (s *Server) registerLedgerRoutes() {
	s.mux.HandleFunc("POST /v1/cases/{case_id}/transactions", s.handleRecordTransaction)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/transactions", s.handleListTransactions)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/funds", s.handleFundsSummary)

	s.mux.HandleFunc("POST /v1/cases/{case_id}/claims", s.handleLodgeClaim)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/claims", s.handleListClaims)
	s.mux.HandleFunc("GET /v1/claims/{claim_id}", s.handleGetClaim)
	s.mux.HandleFunc("POST /v1/claims/{claim_id}/transition", s.handleTransitionClaim)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/verification", s.handleClaimsVerification)

	s.mux.HandleFunc("POST /v1/cases/{case_id}/distributions", s.handleDeclareDistribution)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/distributions", s.handleListDistributions)
	s.mux.HandleFunc("GET /v1/distributions/{distribution_id}", s.handleGetDistribution)
	s.mux.HandleFunc("GET /v1/cases/{case_id}/progress", s.handleDistributionProgress)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.RecordTransactionHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListTransactionsHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundsSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.FundsSummaryHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLodgeClaim(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.LodgeClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.LodgeClaimHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListClaimsHandler(
		r.Context(),
		r.PathValue("case_id"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetClaimHandler(r.Context(), r.PathValue("claim_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionClaim(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.TransitionClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.TransitionClaimHandler(r.Context(), r.PathValue("claim_id"), actor(r), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimsVerification(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ClaimsVerificationHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeclareDistribution(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.DeclareDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.DeclareDistributionHandler(r.Context(), r.PathValue("case_id"), actor(r), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListDistributionsHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetDistributionHandler(r.Context(), r.PathValue("distribution_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributionProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.DistributionProgressHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
