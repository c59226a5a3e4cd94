package application

import (
	"context"
	"errors"
	"testing"

	"liquorum/contexts/insolvency-core/case-registry-service/adapters/memory"
	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
)

func newService(store *memory.Store) Service {
	return Service{
		Repo:  store,
		Clock: store,
		IDGen: store,
	}
}

func TestCreateCaseOpensWithAudit(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	c, err := service.CreateCase(context.Background(), "practitioner-1", CreateCaseInput{Reference: "INS-2026-001", Stage: "asset_realization"})
	if err != nil {
		t.Fatalf("create case failed: %v", err)
	}
	if c.Status != entities.CaseStatusOpen {
		t.Fatalf("expected open status, got %s", c.Status)
	}
	if c.ClosedAt != nil {
		t.Fatal("expected no closed timestamp on a fresh case")
	}

	entries := store.AuditEntries()
	if len(entries) != 1 || entries[0].Action != "case.opened" {
		t.Fatalf("expected case.opened audit entry, got %+v", entries)
	}
	if entries[0].Actor != "practitioner-1" {
		t.Fatalf("expected actor recorded, got %s", entries[0].Actor)
	}
}

func TestCreateCaseDuplicateReference(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	if _, err := service.CreateCase(context.Background(), "", CreateCaseInput{Reference: "INS-2026-001"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := service.CreateCase(context.Background(), "", CreateCaseInput{Reference: "INS-2026-001"})
	if !errors.Is(err, domainerrors.ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
}

func TestTransitionCaseLifecycle(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	c, err := service.CreateCase(context.Background(), "", CreateCaseInput{Reference: "INS-2026-002"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	held, err := service.TransitionCase(context.Background(), "", c.ID, entities.CaseStatusOnHold)
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}
	if held.Status != entities.CaseStatusOnHold {
		t.Fatalf("expected on_hold, got %s", held.Status)
	}

	closed, err := service.TransitionCase(context.Background(), "", c.ID, entities.CaseStatusClosed)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatal("expected closed timestamp")
	}

	_, err = service.TransitionCase(context.Background(), "", c.ID, entities.CaseStatusOpen)
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected closed to be terminal, got %v", err)
	}
}

func TestSetCaseStageRejectsClosedCase(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	c, err := service.CreateCase(context.Background(), "", CreateCaseInput{Reference: "INS-2026-003"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := service.TransitionCase(context.Background(), "", c.ID, entities.CaseStatusClosed); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, err = service.SetCaseStage(context.Background(), "", c.ID, "distribution")
	if !errors.Is(err, domainerrors.ErrCaseClosed) {
		t.Fatalf("expected case closed, got %v", err)
	}
}

func TestDeleteCasePurgesDependentsFirst(t *testing.T) {
	store := memory.NewStore()
	dependents := &recordingDependents{}
	service := newService(store)
	service.Dependents = dependents

	c, err := service.CreateCase(context.Background(), "", CreateCaseInput{Reference: "INS-2026-004"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := service.DeleteCase(context.Background(), "practitioner-2", c.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(dependents.deleted) != 1 || dependents.deleted[0] != c.ID {
		t.Fatalf("expected dependent purge for %s, got %v", c.ID, dependents.deleted)
	}
	if _, err := service.GetCase(context.Background(), c.ID); !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("expected case gone, got %v", err)
	}

	found := false
	for _, entry := range store.AuditEntries() {
		if entry.Action == "case.deleted" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected case.deleted audit entry to survive")
	}
}

func TestDeleteCreditorRestrictedWhenReferenced(t *testing.T) {
	store := memory.NewStore()
	dependents := &recordingDependents{referenced: true}
	service := newService(store)
	service.Dependents = dependents

	creditor, err := service.CreateCreditor(context.Background(), "", CreateCreditorInput{Name: "Alpenbank AG"})
	if err != nil {
		t.Fatalf("create creditor failed: %v", err)
	}
	err = service.DeleteCreditor(context.Background(), "", creditor.ID)
	if !errors.Is(err, domainerrors.ErrCreditorInUse) {
		t.Fatalf("expected creditor in use, got %v", err)
	}

	dependents.referenced = false
	if err := service.DeleteCreditor(context.Background(), "", creditor.ID); err != nil {
		t.Fatalf("delete failed once unreferenced: %v", err)
	}
}

func TestUpdateCreditorPartial(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	creditor, err := service.CreateCreditor(context.Background(), "", CreateCreditorInput{Name: "Alpenbank AG", ContactEmail: "claims@alpenbank.example"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inactive := false
	updated, err := service.UpdateCreditor(context.Background(), "", creditor.ID, UpdateCreditorInput{Active: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Active {
		t.Fatal("expected creditor deactivated")
	}
	if updated.Name != "Alpenbank AG" || updated.ContactEmail != "claims@alpenbank.example" {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
}

type recordingDependents struct {
	deleted    []string
	referenced bool
}

func (d *recordingDependents) DeleteCaseData(_ context.Context, caseID string) error {
	d.deleted = append(d.deleted, caseID)
	return nil
}

func (d *recordingDependents) CreditorReferenced(_ context.Context, _ string) (bool, error) {
	return d.referenced, nil
}
