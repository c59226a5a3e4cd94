package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	audittrail "liquorum/contexts/insolvency-core/audit-trail-service"
	auditapplication "liquorum/contexts/insolvency-core/audit-trail-service/application"
	auditentities "liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	caseledger "liquorum/contexts/insolvency-core/case-ledger-service"
	ledgermemory "liquorum/contexts/insolvency-core/case-ledger-service/adapters/memory"
	"liquorum/contexts/insolvency-core/case-ledger-service/application/commands"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	ledgererrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	ledgerports "liquorum/contexts/insolvency-core/case-ledger-service/ports"
	caseregistry "liquorum/contexts/insolvency-core/case-registry-service"
	"liquorum/contexts/insolvency-core/case-registry-service/application"
	registryentities "liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	registryerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	registryports "liquorum/contexts/insolvency-core/case-registry-service/ports"
)

// caseMirror is the test-local equivalent of the bootstrap replica
// wiring: registry changes land in the ledger's read-only case view.
type caseMirror struct {
	store *ledgermemory.Store
}

func (m caseMirror) CaseChanged(c registryentities.Case) {
	m.store.UpsertCase(ledgerports.CaseRecord{
		ID:        c.ID,
		Reference: c.Reference,
		Status:    string(c.Status),
		Stage:     c.Stage,
		OpenedAt:  c.OpenedAt,
		ClosedAt:  c.ClosedAt,
	})
}

func (m caseMirror) CaseRemoved(caseID string) {
	_ = m.store.DeleteCaseData(context.Background(), caseID)
}

func (m caseMirror) CreditorChanged(creditor registryentities.Creditor) {
	m.store.PutCreditor(creditor.ID, creditor.Active)
}

func (m caseMirror) CreditorRemoved(creditorID string) {
	m.store.RemoveCreditor(creditorID)
}

func wiredModules() (caseregistry.Module, caseledger.Module, audittrail.Module) {
	ledgerModule := caseledger.NewInMemoryModule(nil, nil, nil)
	auditModule := audittrail.NewInMemoryModule(nil)
	registryModule := caseregistry.NewInMemoryModule(ledgerModule.Store, caseMirror{store: ledgerModule.Store}, nil)

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
	return registryModule, ledgerModule, auditModule
}

func TestRegistryCaseFlowsIntoLedger(t *testing.T) {
	registryModule, ledgerModule, _ := wiredModules()
	service := registryModule.Handler.Service

	c, err := service.CreateCase(context.Background(), "practitioner-1", application.CreateCaseInput{Reference: "INS-2026-010"})
	if err != nil {
		t.Fatalf("create case failed: %v", err)
	}
	if _, err := service.CreateCreditor(context.Background(), "", application.CreateCreditorInput{Name: "Alpenbank AG"}); err != nil {
		t.Fatalf("create creditor failed: %v", err)
	}

	if _, err := ledgerModule.Store.GetCase(context.Background(), c.ID); err != nil {
		t.Fatalf("expected case mirrored into ledger, got %v", err)
	}
	if _, err := ledgerModule.Handler.Commands.RecordTransaction(context.Background(), commands.RecordTransactionCommand{
		CaseID: c.ID, Kind: entities.TransactionKindReceipt, Amount: dec("100.00"),
	}); err != nil {
		t.Fatalf("ledger rejected mirrored case: %v", err)
	}

	if _, err := service.TransitionCase(context.Background(), "", c.ID, registryentities.CaseStatusClosed); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	_, err = ledgerModule.Handler.Commands.RecordTransaction(context.Background(), commands.RecordTransactionCommand{
		CaseID: c.ID, Kind: entities.TransactionKindReceipt, Amount: dec("50.00"),
	})
	if !errors.Is(err, ledgererrors.ErrCaseClosed) {
		t.Fatalf("expected ledger to see the closed case, got %v", err)
	}
}

func TestCaseDeletionCascadesButKeepsAuditTrail(t *testing.T) {
	registryModule, ledgerModule, auditModule := wiredModules()
	service := registryModule.Handler.Service

	c, err := service.CreateCase(context.Background(), "", application.CreateCaseInput{Reference: "INS-2026-011"})
	if err != nil {
		t.Fatalf("create case failed: %v", err)
	}
	creditor, err := service.CreateCreditor(context.Background(), "", application.CreateCreditorInput{Name: "Alpenbank AG"})
	if err != nil {
		t.Fatalf("create creditor failed: %v", err)
	}
	if _, err := ledgerModule.Handler.Commands.LodgeClaim(context.Background(), commands.LodgeClaimCommand{
		CaseID: c.ID, CreditorID: creditor.ID, AmountClaimed: dec("300.00"),
	}); err != nil {
		t.Fatalf("lodge failed: %v", err)
	}

	// Financial history blocks creditor deletion.
	err = service.DeleteCreditor(context.Background(), "", creditor.ID)
	if !errors.Is(err, registryerrors.ErrCreditorInUse) {
		t.Fatalf("expected creditor in use, got %v", err)
	}

	if err := service.DeleteCase(context.Background(), "practitioner-2", c.ID); err != nil {
		t.Fatalf("delete case failed: %v", err)
	}
	if claims, err := ledgerModule.Handler.Queries.ListClaims(context.Background(), c.ID); err != nil || len(claims) != 0 {
		t.Fatalf("expected ledger data purged, got %v claims, err %v", len(claims), err)
	}

	// With the claim gone the creditor can leave too.
	if err := service.DeleteCreditor(context.Background(), "", creditor.ID); err != nil {
		t.Fatalf("delete creditor after cascade failed: %v", err)
	}

	history, err := auditModule.Handler.Service.History(context.Background(), auditapplication.HistoryRequest{CaseID: c.ID, Limit: 100})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	actions := map[string]bool{}
	for _, entry := range history.Entries {
		actions[entry.Action] = true
	}
	if !actions["case.opened"] || !actions["claim.lodged"] || !actions["case.deleted"] {
		t.Fatalf("expected full trail to survive deletion, got %v", actions)
	}
}
