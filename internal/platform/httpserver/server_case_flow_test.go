package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	audittrail "liquorum/contexts/insolvency-core/audit-trail-service"
	auditentities "liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	ledgermemory "liquorum/contexts/insolvency-core/case-ledger-service/adapters/memory"
	ledgerports "liquorum/contexts/insolvency-core/case-ledger-service/ports"
	caseregistry "liquorum/contexts/insolvency-core/case-registry-service"
	registryentities "liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	registryports "liquorum/contexts/insolvency-core/case-registry-service/ports"
)

type testReplica struct {
	store *ledgermemory.Store
}

func (r testReplica) CaseChanged(c registryentities.Case) {
	r.store.UpsertCase(ledgerports.CaseRecord{
		ID:        c.ID,
		Reference: c.Reference,
		Status:    string(c.Status),
		Stage:     c.Stage,
		OpenedAt:  c.OpenedAt,
		ClosedAt:  c.ClosedAt,
	})
}

func (r testReplica) CaseRemoved(caseID string) {
	_ = r.store.DeleteCaseData(context.Background(), caseID)
}

func (r testReplica) CreditorChanged(creditor registryentities.Creditor) {
	r.store.PutCreditor(creditor.ID, creditor.Active)
}

func (r testReplica) CreditorRemoved(creditorID string) {
	r.store.RemoveCreditor(creditorID)
}

func newTestServer() *Server {
	ledgerModule := caseledger.NewInMemoryModule(nil, nil, nil)
	auditModule := audittrail.NewInMemoryModule(nil)
	registryModule := caseregistry.NewInMemoryModule(ledgerModule.Store, testReplica{store: ledgerModule.Store}, nil)

	ledgerModule.Store.AuditSink = func(entry ledgerports.AuditEntry) {
		snapshot, _ := json.Marshal(entry.Snapshot)
		_ = auditModule.Store.Append(context.Background(), auditentities.Entry{
			ID: entry.EntryID, CaseID: entry.CaseID, Actor: entry.Actor, Action: entry.Action,
			EntityType: entry.EntityType, EntityID: entry.EntityID, Snapshot: snapshot, CreatedAt: entry.CreatedAt,
		})
	}
	registryModule.Store.AuditSink = func(entry registryports.AuditEntry) {
		snapshot, _ := json.Marshal(entry.Snapshot)
		_ = auditModule.Store.Append(context.Background(), auditentities.Entry{
			ID: entry.EntryID, CaseID: entry.CaseID, Actor: entry.Actor, Action: entry.Action,
			EntityType: entry.EntityType, EntityID: entry.EntityID, Snapshot: snapshot, CreatedAt: entry.CreatedAt,
		})
	}

	return New(registryModule, ledgerModule, auditModule, nil, ":0", false)
}

func doJSON(t *testing.T, server *Server, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "practitioner-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func createCaseViaAPI(t *testing.T, server *Server, reference string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/v1/cases", fmt.Sprintf(`{"reference":%q}`, reference))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create case: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create case response: %v", err)
	}
	return resp.ID
}

func createCreditorViaAPI(t *testing.T, server *Server, name string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/v1/creditors", fmt.Sprintf(`{"name":%q}`, name))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create creditor: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create creditor response: %v", err)
	}
	return resp.ID
}

func TestCaseLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()
	caseID := createCaseViaAPI(t, server, "INS-2026-020")

	rr := doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/transition", `{"to_status":"closed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/transition", `{"to_status":"open"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("reopen: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing case: expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLedgerFlowOverHTTP(t *testing.T) {
	server := newTestServer()
	caseID := createCaseViaAPI(t, server, "INS-2026-021")
	creditorID := createCreditorViaAPI(t, server, "Alpenbank AG")

	rr := doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/transactions", `{"kind":"receipt","amount":"10000.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("record: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/transactions", `{"kind":"receipt","amount":"nonsense"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/claims", fmt.Sprintf(`{"creditor_id":%q,"amount_claimed":"4000.00"}`, creditorID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("lodge: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var claim struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &claim); err != nil {
		t.Fatalf("decode claim: %v", err)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/claims", fmt.Sprintf(`{"creditor_id":%q,"amount_claimed":"1.00"}`, creditorID))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate claim: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/claims/"+claim.ID+"/transition", `{"to_status":"admitted","amount_admitted":"4000.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/distributions", `{"round_no":1,"total_amount":"20000.00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-distribute: expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/distributions", `{"round_no":1,"total_amount":"4000.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("distribute: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/progress", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var progress struct {
		Undistributed string `json:"undistributed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if progress.Undistributed != "6000.00" {
		t.Fatalf("expected undistributed 6000.00, got %s", progress.Undistributed)
	}
}

func TestActivityTrailOverHTTP(t *testing.T) {
	server := newTestServer()
	caseID := createCaseViaAPI(t, server, "INS-2026-022")

	rr := doJSON(t, server, http.MethodPost, "/v1/cases/"+caseID+"/notes", `{"note":"creditor meeting adjourned"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("note: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/activity", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("activity: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var history struct {
		Entries []struct {
			Action string `json:"action"`
			Actor  string `json:"actor"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	actions := map[string]bool{}
	for _, entry := range history.Entries {
		actions[entry.Action] = true
		if entry.Actor != "practitioner-1" {
			t.Fatalf("expected actor header propagated, got %q", entry.Actor)
		}
	}
	if !actions["case.opened"] || !actions["note.recorded"] {
		t.Fatalf("expected opened and note entries, got %v", actions)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/activity?cursor=%25bad%25", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad cursor: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestActivitySinceFilterOverHTTP(t *testing.T) {
	server := newTestServer()
	caseID := createCaseViaAPI(t, server, "INS-2026-023")

	// The opened entry carries the real wall clock; a future bound must
	// exclude it and a past bound must include it.
	rr := doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/activity?since=2030-01-01T00:00:00Z", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("future since: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var history struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Entries) != 0 {
		t.Fatalf("expected no entries after a future bound, got %d", len(history.Entries))
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/activity?since=2020-01-01T00:00:00Z", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("past since: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	history.Entries = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Entries) != 1 || history.Entries[0].Action != "case.opened" {
		t.Fatalf("expected the opened entry, got %+v", history.Entries)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/cases/"+caseID+"/activity?since=yesterday", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad since: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
