package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-registry-service/ports"
)

type recordingReplica struct {
	caseChanges      []entities.Case
	caseRemovals     []string
	creditorChanges  []entities.Creditor
	creditorRemovals []string
}

func (r *recordingReplica) CaseChanged(c entities.Case)                { r.caseChanges = append(r.caseChanges, c) }
func (r *recordingReplica) CaseRemoved(caseID string)                  { r.caseRemovals = append(r.caseRemovals, caseID) }
func (r *recordingReplica) CreditorChanged(creditor entities.Creditor) { r.creditorChanges = append(r.creditorChanges, creditor) }
func (r *recordingReplica) CreditorRemoved(creditorID string)          { r.creditorRemovals = append(r.creditorRemovals, creditorID) }

func sampleCase(id string, reference string) entities.Case {
	now := time.Now().UTC()
	return entities.Case{ID: id, Reference: reference, Status: entities.CaseStatusOpen, OpenedAt: now, UpdatedAt: now}
}

func TestCreateCaseDuplicateReferenceRejected(t *testing.T) {
	store := NewStore()

	if err := store.CreateCase(context.Background(), sampleCase("case-1", "INS-2026-001"), ports.AuditEntry{EntryID: "a1"}, ports.EventEnvelope{EventID: "e1"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err := store.CreateCase(context.Background(), sampleCase("case-2", "INS-2026-001"), ports.AuditEntry{EntryID: "a2"}, ports.EventEnvelope{EventID: "e2"})
	if !errors.Is(err, domainerrors.ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
}

func TestUpdateCaseStaleStatusConflicts(t *testing.T) {
	store := NewStore()
	c := sampleCase("case-1", "INS-2026-001")
	if err := store.CreateCase(context.Background(), c, ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	c.Status = entities.CaseStatusOnHold
	err := store.UpdateCase(context.Background(), c, entities.CaseStatusClosed, ports.AuditEntry{}, ports.EventEnvelope{})
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict on stale status, got %v", err)
	}
	if err := store.UpdateCase(context.Background(), c, entities.CaseStatusOpen, ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("update with matching status failed: %v", err)
	}
}

func TestCreateCaseCommitsNothingWhenOutboxAppendFails(t *testing.T) {
	replica := &recordingReplica{}
	store := NewStore()
	store.Replica = replica

	// NaN is not JSON-serializable, so the outbox append fails.
	badEvent := ports.EventEnvelope{EventID: "e-bad", Payload: math.NaN()}
	err := store.CreateCase(context.Background(), sampleCase("case-1", "INS-2026-001"), ports.AuditEntry{EntryID: "a1"}, badEvent)
	if err == nil {
		t.Fatal("expected outbox append failure")
	}
	if _, err := store.GetCase(context.Background(), "case-1"); !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("expected no case persisted, got %v", err)
	}
	if entries := store.AuditEntries(); len(entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(entries))
	}
	if len(replica.caseChanges) != 0 {
		t.Fatalf("expected no replica fan-out, got %d changes", len(replica.caseChanges))
	}

	// The reference stays free for a clean retry.
	if err := store.CreateCase(context.Background(), sampleCase("case-1", "INS-2026-001"), ports.AuditEntry{EntryID: "a1"}, ports.EventEnvelope{EventID: "e1"}); err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
}

func TestReplicaReceivesCommittedChanges(t *testing.T) {
	store := NewStore()
	replica := &recordingReplica{}
	store.Replica = replica

	c := sampleCase("case-1", "INS-2026-001")
	if err := store.CreateCase(context.Background(), c, ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.DeleteCase(context.Background(), "case-1", ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	creditor := entities.Creditor{ID: "cred-1", Name: "Alpenbank AG", Active: true}
	if err := store.CreateCreditor(context.Background(), creditor, ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("create creditor failed: %v", err)
	}
	if err := store.DeleteCreditor(context.Background(), "cred-1", ports.AuditEntry{}, ports.EventEnvelope{}); err != nil {
		t.Fatalf("delete creditor failed: %v", err)
	}

	if len(replica.caseChanges) != 1 || replica.caseChanges[0].ID != "case-1" {
		t.Fatalf("expected one case change, got %+v", replica.caseChanges)
	}
	if len(replica.caseRemovals) != 1 || replica.caseRemovals[0] != "case-1" {
		t.Fatalf("expected one case removal, got %v", replica.caseRemovals)
	}
	if len(replica.creditorChanges) != 1 || len(replica.creditorRemovals) != 1 {
		t.Fatalf("expected creditor fan-out, got %+v / %v", replica.creditorChanges, replica.creditorRemovals)
	}

	// Replica failures never roll back the store; duplicate reference
	// checks still see the committed state.
	err := store.CreateCase(context.Background(), sampleCase("case-1", "INS-2026-001"), ports.AuditEntry{}, ports.EventEnvelope{})
	if err != nil {
		t.Fatalf("recreate after delete failed: %v", err)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore()
	c := sampleCase("case-1", "INS-2026-001")
	event := ports.EventEnvelope{EventID: "e1", EventType: "case.opened", OccurredAtUTC: time.Now().UTC()}
	if err := store.CreateCase(context.Background(), c, ports.AuditEntry{EntryID: "a1"}, event); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "case.opened" {
		t.Fatalf("unexpected pending messages: %+v", pending)
	}

	if err := store.MarkOutboxPublished(context.Background(), "e1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d", len(pending))
	}
}
