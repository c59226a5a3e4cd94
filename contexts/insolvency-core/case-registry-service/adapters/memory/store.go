package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-registry-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-registry-service/ports"
	"liquorum/internal/shared/outbox"
)

// Store is the in-memory registry repository. A single mutex serializes
// mutations; the optional Replica receives every committed change so a
// sibling module's mirrored case view stays current.
type Store struct {
	mu sync.RWMutex

	cases     map[string]entities.Case
	byRef     map[string]string
	creditors map[string]entities.Creditor
	audit     []ports.AuditEntry
	outboxRec map[string]ports.OutboxMessage

	Replica ports.CaseReplica

	// AuditSink, when set, receives every committed audit entry so the
	// audit trail module's in-memory view stays current.
	AuditSink func(ports.AuditEntry)
}

func NewStore() *Store {
	return &Store{
		cases:     make(map[string]entities.Case),
		byRef:     make(map[string]string),
		creditors: make(map[string]entities.Creditor),
		outboxRec: make(map[string]ports.OutboxMessage),
	}
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) CreateCase(_ context.Context, c entities.Case, entry ports.AuditEntry, event ports.EventEnvelope) error {
	s.mu.Lock()
	if _, exists := s.byRef[c.Reference]; exists {
		s.mu.Unlock()
		return domainerrors.ErrDuplicateReference
	}
	if err := s.appendOutboxLocked(event, c.ID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cases[c.ID] = c
	s.byRef[c.Reference] = c.ID
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CaseChanged(c)
	}
	return nil
}

func (s *Store) GetCase(_ context.Context, caseID string) (entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, exists := s.cases[strings.TrimSpace(caseID)]
	if !exists {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return c, nil
}

func (s *Store) ListCases(_ context.Context) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cases := make([]entities.Case, 0, len(s.cases))
	for _, c := range s.cases {
		cases = append(cases, c)
	}
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].OpenedAt.Equal(cases[j].OpenedAt) {
			return cases[i].ID < cases[j].ID
		}
		return cases[i].OpenedAt.Before(cases[j].OpenedAt)
	})
	return cases, nil
}

func (s *Store) UpdateCase(
	_ context.Context,
	c entities.Case,
	expectedStatus entities.CaseStatus,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	existing, exists := s.cases[c.ID]
	if !exists {
		s.mu.Unlock()
		return domainerrors.ErrCaseNotFound
	}
	if existing.Status != expectedStatus {
		s.mu.Unlock()
		return domainerrors.ErrConflict
	}
	if err := s.appendOutboxLocked(event, c.ID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cases[c.ID] = c
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CaseChanged(c)
	}
	return nil
}

func (s *Store) DeleteCase(_ context.Context, caseID string, entry ports.AuditEntry, event ports.EventEnvelope) error {
	caseID = strings.TrimSpace(caseID)
	s.mu.Lock()
	c, exists := s.cases[caseID]
	if !exists {
		s.mu.Unlock()
		return domainerrors.ErrCaseNotFound
	}
	if err := s.appendOutboxLocked(event, caseID); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.cases, caseID)
	delete(s.byRef, c.Reference)
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CaseRemoved(caseID)
	}
	return nil
}

func (s *Store) CreateCreditor(_ context.Context, creditor entities.Creditor, entry ports.AuditEntry, event ports.EventEnvelope) error {
	s.mu.Lock()
	if err := s.appendOutboxLocked(event, creditor.ID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.creditors[creditor.ID] = creditor
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CreditorChanged(creditor)
	}
	return nil
}

func (s *Store) GetCreditor(_ context.Context, creditorID string) (entities.Creditor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creditor, exists := s.creditors[strings.TrimSpace(creditorID)]
	if !exists {
		return entities.Creditor{}, domainerrors.ErrCreditorNotFound
	}
	return creditor, nil
}

func (s *Store) ListCreditors(_ context.Context) ([]entities.Creditor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creditors := make([]entities.Creditor, 0, len(s.creditors))
	for _, creditor := range s.creditors {
		creditors = append(creditors, creditor)
	}
	sort.Slice(creditors, func(i, j int) bool {
		return creditors[i].Name < creditors[j].Name
	})
	return creditors, nil
}

func (s *Store) UpdateCreditor(_ context.Context, creditor entities.Creditor, entry ports.AuditEntry, event ports.EventEnvelope) error {
	s.mu.Lock()
	if _, exists := s.creditors[creditor.ID]; !exists {
		s.mu.Unlock()
		return domainerrors.ErrCreditorNotFound
	}
	if err := s.appendOutboxLocked(event, creditor.ID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.creditors[creditor.ID] = creditor
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CreditorChanged(creditor)
	}
	return nil
}

func (s *Store) DeleteCreditor(_ context.Context, creditorID string, entry ports.AuditEntry, event ports.EventEnvelope) error {
	creditorID = strings.TrimSpace(creditorID)
	s.mu.Lock()
	if _, exists := s.creditors[creditorID]; !exists {
		s.mu.Unlock()
		return domainerrors.ErrCreditorNotFound
	}
	if err := s.appendOutboxLocked(event, creditorID); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.creditors, creditorID)
	s.appendAuditLocked(entry)
	s.mu.Unlock()
	if s.Replica != nil {
		s.Replica.CreditorRemoved(creditorID)
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]ports.OutboxMessage, 0, len(s.outboxRec))
	for _, message := range s.outboxRec {
		if message.Status != outbox.StatusPending {
			continue
		}
		pending = append(pending, message)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].OutboxID < pending[j].OutboxID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, exists := s.outboxRec[strings.TrimSpace(outboxID)]
	if !exists {
		return nil
	}
	published := publishedAt.UTC()
	message.Status = outbox.StatusPublished
	message.PublishedAt = &published
	s.outboxRec[message.OutboxID] = message
	return nil
}

// AuditEntries exposes the recorded audit trail for tests.
func (s *Store) AuditEntries() []ports.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEntry(nil), s.audit...)
}

func (s *Store) appendAuditLocked(entry ports.AuditEntry) {
	s.audit = append(s.audit, entry)
	if s.AuditSink != nil {
		s.AuditSink(entry)
	}
}

// appendOutboxLocked is the only fallible step of a mutation; callers
// run it before touching visible state so a failure commits nothing.
func (s *Store) appendOutboxLocked(event ports.EventEnvelope, partitionKey string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outboxRec[event.EventID] = ports.OutboxMessage{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    event.OccurredAtUTC.UTC(),
	}
	return nil
}
