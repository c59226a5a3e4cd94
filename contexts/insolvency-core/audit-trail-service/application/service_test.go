package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"liquorum/contexts/insolvency-core/audit-trail-service/adapters/memory"
	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/audit-trail-service/domain/errors"
)

func seededService(t *testing.T, count int) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		err := store.Append(context.Background(), entities.Entry{
			ID:         fmt.Sprintf("entry-%03d", i),
			CaseID:     "case-1",
			Actor:      "system",
			Action:     "transaction.recorded",
			EntityType: "transaction",
			EntityID:   fmt.Sprintf("txn-%03d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed append failed: %v", err)
		}
	}
	return Service{Reader: store, Appender: store, Clock: store, IDGen: store}, store
}

func TestHistoryNewestFirstWithCursor(t *testing.T) {
	service, _ := seededService(t, 5)

	first, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Limit: 3})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(first.Entries))
	}
	if first.Entries[0].ID != "entry-004" || first.Entries[2].ID != "entry-002" {
		t.Fatalf("expected newest first, got %s..%s", first.Entries[0].ID, first.Entries[2].ID)
	}
	if first.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	second, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Limit: 3, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second.Entries) != 2 {
		t.Fatalf("expected 2 remaining entries, got %d", len(second.Entries))
	}
	if second.Entries[0].ID != "entry-001" || second.Entries[1].ID != "entry-000" {
		t.Fatalf("unexpected second page: %s, %s", second.Entries[0].ID, second.Entries[1].ID)
	}
	if second.NextCursor != "" {
		t.Fatalf("expected exhausted cursor, got %q", second.NextCursor)
	}
}

func TestHistoryFiltersByEntityAndAction(t *testing.T) {
	service, store := seededService(t, 3)
	if err := store.Append(context.Background(), entities.Entry{
		ID: "entry-note", CaseID: "case-1", Actor: "practitioner-1",
		Action: "note.recorded", EntityType: "case", EntityID: "case-1",
		CreatedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	result, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Action: "note.recorded"})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != "entry-note" {
		t.Fatalf("expected only the note entry, got %+v", result.Entries)
	}

	result, err = service.History(context.Background(), HistoryRequest{EntityType: "transaction", EntityID: "txn-001"})
	if err != nil {
		t.Fatalf("entity history failed: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != "entry-001" {
		t.Fatalf("expected single entity entry, got %+v", result.Entries)
	}
}

func TestHistorySinceIsInclusiveLowerBound(t *testing.T) {
	service, _ := seededService(t, 5)

	// Seed times start at 12:00:00 and step one second per entry, so a
	// bound at entry-002's timestamp keeps entries 002..004.
	since := time.Date(2026, 4, 1, 12, 0, 2, 0, time.UTC)
	result, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Since: &since})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries at or after the bound, got %d", len(result.Entries))
	}
	if result.Entries[0].ID != "entry-004" || result.Entries[2].ID != "entry-002" {
		t.Fatalf("unexpected window: %s..%s", result.Entries[0].ID, result.Entries[2].ID)
	}

	future := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err = service.History(context.Background(), HistoryRequest{CaseID: "case-1", Since: &future})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expected nothing after a future bound, got %d entries", len(result.Entries))
	}
}

func TestHistorySinceCombinesWithCursor(t *testing.T) {
	service, _ := seededService(t, 5)

	since := time.Date(2026, 4, 1, 12, 0, 1, 0, time.UTC)
	first, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Since: &since, Limit: 2})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first.Entries) != 2 || first.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d entries", len(first.Entries))
	}

	second, err := service.History(context.Background(), HistoryRequest{
		CaseID: "case-1", Since: &since, Limit: 2, Cursor: first.NextCursor,
	})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second.Entries) != 2 || second.Entries[1].ID != "entry-001" {
		t.Fatalf("expected the window to end at entry-001, got %+v", second.Entries)
	}
	if second.NextCursor != "" {
		t.Fatalf("expected exhausted cursor, got %q", second.NextCursor)
	}
}

func TestHistoryRejectsMalformedCursor(t *testing.T) {
	service, _ := seededService(t, 1)

	_, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Cursor: "not-a-cursor!"})
	if !errors.Is(err, domainerrors.ErrInvalidCursor) {
		t.Fatalf("expected invalid cursor, got %v", err)
	}
}

func TestHistoryLimitClamped(t *testing.T) {
	service, _ := seededService(t, 1)

	if got := normalizeLimit(0); got != defaultHistoryLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := normalizeLimit(10000); got != maxHistoryLimit {
		t.Fatalf("expected clamped limit, got %d", got)
	}

	result, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1", Limit: 10000})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
}

func TestRecordNoteAppendsEntry(t *testing.T) {
	service, _ := seededService(t, 0)

	entry, err := service.RecordNote(context.Background(), "practitioner-1", "case-1", "creditor meeting adjourned")
	if err != nil {
		t.Fatalf("record note failed: %v", err)
	}
	if entry.Action != "note.recorded" || entry.Actor != "practitioner-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	result, err := service.History(context.Background(), HistoryRequest{CaseID: "case-1"})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != entry.ID {
		t.Fatalf("expected the note in history, got %+v", result.Entries)
	}

	_, err = service.RecordNote(context.Background(), "", "case-1", "   ")
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank note, got %v", err)
	}
}
