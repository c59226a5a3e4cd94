package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	domainerrors "liquorum/contexts/insolvency-core/case-ledger-service/domain/errors"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/services"
	"liquorum/contexts/insolvency-core/case-ledger-service/ports"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// Store is the in-memory repository. One store-wide mutex serializes all
// mutating operations, which trivially satisfies per-case mutual
// exclusion; reads run under the read lock against a consistent state.
type Store struct {
	mu sync.RWMutex

	cases        map[string]ports.CaseRecord
	creditors    map[string]bool
	transactions []entities.Transaction
	claims       map[string]entities.Claim
	dists        map[string]entities.Distribution
	audit        []ports.AuditEntry
	outbox       map[string]outboxRecord
	nextSeq      int64

	// AuditSink, when set, receives every committed audit entry so the
	// audit trail module's in-memory view stays current.
	AuditSink func(ports.AuditEntry)
}

func NewStore(cases []ports.CaseRecord, creditors []string) *Store {
	caseIndex := make(map[string]ports.CaseRecord, len(cases))
	for _, record := range cases {
		caseIndex[record.ID] = record
	}
	creditorIndex := make(map[string]bool, len(creditors))
	for _, creditorID := range creditors {
		creditorIndex[creditorID] = true
	}
	return &Store{
		cases:     caseIndex,
		creditors: creditorIndex,
		claims:    make(map[string]entities.Claim),
		dists:     make(map[string]entities.Distribution),
		outbox:    make(map[string]outboxRecord),
		nextSeq:   1,
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// UpsertCase mirrors registry state into the ledger's read-only case
// view. Tests and the registry wiring use it to open and close cases.
func (s *Store) UpsertCase(record ports.CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[record.ID] = record
}

// PutCreditor mirrors registry creditor state.
func (s *Store) PutCreditor(creditorID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditors[strings.TrimSpace(creditorID)] = active
}

// RemoveCreditor drops a creditor from the mirrored view.
func (s *Store) RemoveCreditor(creditorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creditors, strings.TrimSpace(creditorID))
}

func (s *Store) GetCase(_ context.Context, caseID string) (ports.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.cases[strings.TrimSpace(caseID)]
	if !exists {
		return ports.CaseRecord{}, domainerrors.ErrCaseNotFound
	}
	return record, nil
}

func (s *Store) RecordTransaction(
	_ context.Context,
	txn entities.Transaction,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) (entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.cases[txn.CaseID]
	if !exists {
		return entities.Transaction{}, domainerrors.ErrCaseNotFound
	}
	if record.Closed() {
		return entities.Transaction{}, domainerrors.ErrCaseClosed
	}

	if err := s.appendOutboxLocked(event, txn.CaseID); err != nil {
		return entities.Transaction{}, err
	}
	txn.Seq = s.nextSeq
	s.nextSeq++
	s.transactions = append(s.transactions, txn)
	s.appendAuditLocked(entry)
	return txn, nil
}

func (s *Store) ListTransactions(_ context.Context, caseID string) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caseID = strings.TrimSpace(caseID)
	transactions := make([]entities.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.CaseID == caseID {
			transactions = append(transactions, txn)
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].OccurredAt.Equal(transactions[j].OccurredAt) {
			return transactions[i].OccurredAt.Before(transactions[j].OccurredAt)
		}
		return transactions[i].Seq < transactions[j].Seq
	})
	return transactions, nil
}

func (s *Store) FundsSummary(_ context.Context, caseID string) (ports.FundsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.cases[strings.TrimSpace(caseID)]; !exists {
		return ports.FundsSummary{}, domainerrors.ErrCaseNotFound
	}
	return s.fundsSummaryLocked(strings.TrimSpace(caseID)), nil
}

func (s *Store) fundsSummaryLocked(caseID string) ports.FundsSummary {
	summary := ports.FundsSummary{
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
	}
	for _, txn := range s.transactions {
		if txn.CaseID != caseID {
			continue
		}
		if txn.Kind.Inflow() {
			summary.TotalIn = summary.TotalIn.Add(txn.Amount)
		} else {
			summary.TotalOut = summary.TotalOut.Add(txn.Amount)
		}
	}
	summary.AvailableFunds = summary.TotalIn.Sub(summary.TotalOut)
	return summary
}

func (s *Store) LodgeClaim(
	_ context.Context,
	claim entities.Claim,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.cases[claim.CaseID]
	if !exists {
		return domainerrors.ErrCaseNotFound
	}
	if record.Closed() {
		return domainerrors.ErrCaseClosed
	}
	if _, exists := s.creditors[claim.CreditorID]; !exists {
		return domainerrors.ErrCreditorNotFound
	}
	for _, existing := range s.claims {
		if existing.CaseID == claim.CaseID && existing.CreditorID == claim.CreditorID {
			return domainerrors.ErrDuplicateClaim
		}
	}

	if err := s.appendOutboxLocked(event, claim.CaseID); err != nil {
		return err
	}
	s.claims[claim.ID] = claim
	s.appendAuditLocked(entry)
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, exists := s.claims[strings.TrimSpace(claimID)]
	if !exists {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) ListClaims(_ context.Context, caseID string) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caseID = strings.TrimSpace(caseID)
	claims := make([]entities.Claim, 0)
	for _, claim := range s.claims {
		if claim.CaseID == caseID {
			claims = append(claims, claim)
		}
	}
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].LodgedAt.Equal(claims[j].LodgedAt) {
			return claims[i].LodgedAt.Before(claims[j].LodgedAt)
		}
		return claims[i].ID < claims[j].ID
	})
	return claims, nil
}

func (s *Store) UpdateClaim(
	_ context.Context,
	claim entities.Claim,
	expectedStatus entities.ClaimStatus,
	entry ports.AuditEntry,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.claims[claim.ID]
	if !exists {
		return domainerrors.ErrClaimNotFound
	}
	if existing.Status != expectedStatus {
		return domainerrors.ErrConflict
	}

	if err := s.appendOutboxLocked(event, claim.CaseID); err != nil {
		return err
	}
	s.claims[claim.ID] = claim
	s.appendAuditLocked(entry)
	return nil
}

func (s *Store) AdmittedTotal(_ context.Context, caseID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admittedTotalLocked(strings.TrimSpace(caseID)), nil
}

func (s *Store) admittedTotalLocked(caseID string) decimal.Decimal {
	total := decimal.Zero
	for _, claim := range s.claims {
		if claim.CaseID == caseID && claim.Status == entities.ClaimStatusAdmitted && claim.AmountAdmitted != nil {
			total = total.Add(*claim.AmountAdmitted)
		}
	}
	return total
}

func (s *Store) DeclareDistribution(
	ctx context.Context,
	caseID string,
	plan ports.DistributionPlanner,
) (entities.Distribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caseID = strings.TrimSpace(caseID)
	record, exists := s.cases[caseID]
	if !exists {
		return entities.Distribution{}, domainerrors.ErrCaseNotFound
	}

	snapshot := ports.DistributionSnapshot{
		Case:             record,
		AvailableFunds:   s.fundsSummaryLocked(caseID).AvailableFunds,
		DistributedTotal: s.distributedTotalLocked(caseID),
		AdmittedClaims:   s.admittedClaimsLocked(caseID),
	}
	for _, dist := range s.dists {
		if dist.CaseID != caseID {
			continue
		}
		if !snapshot.HasRounds || dist.RoundNo > snapshot.MaxRoundNo {
			snapshot.MaxRoundNo = dist.RoundNo
		}
		snapshot.HasRounds = true
	}

	committed, err := plan(ctx, snapshot)
	if err != nil {
		return entities.Distribution{}, err
	}

	if err := s.appendOutboxLocked(committed.Event, caseID); err != nil {
		return entities.Distribution{}, err
	}
	s.dists[committed.Distribution.ID] = committed.Distribution
	s.appendAuditLocked(committed.Audit)
	return committed.Distribution, nil
}

func (s *Store) admittedClaimsLocked(caseID string) []services.AdmittedClaim {
	admitted := make([]services.AdmittedClaim, 0)
	for _, claim := range s.claims {
		if claim.CaseID == caseID && claim.Status == entities.ClaimStatusAdmitted && claim.AmountAdmitted != nil {
			admitted = append(admitted, services.AdmittedClaim{
				CreditorID: claim.CreditorID,
				Amount:     *claim.AmountAdmitted,
			})
		}
	}
	sort.Slice(admitted, func(i, j int) bool {
		return admitted[i].CreditorID < admitted[j].CreditorID
	})
	return admitted
}

func (s *Store) GetDistribution(_ context.Context, distributionID string) (entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dist, exists := s.dists[strings.TrimSpace(distributionID)]
	if !exists {
		return entities.Distribution{}, domainerrors.ErrDistributionNotFound
	}
	return copyDistribution(dist), nil
}

func (s *Store) ListDistributions(_ context.Context, caseID string) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caseID = strings.TrimSpace(caseID)
	distributions := make([]entities.Distribution, 0)
	for _, dist := range s.dists {
		if dist.CaseID == caseID {
			distributions = append(distributions, copyDistribution(dist))
		}
	}
	sort.Slice(distributions, func(i, j int) bool {
		return distributions[i].RoundNo < distributions[j].RoundNo
	})
	return distributions, nil
}

func (s *Store) DistributedTotal(_ context.Context, caseID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distributedTotalLocked(strings.TrimSpace(caseID)), nil
}

func (s *Store) distributedTotalLocked(caseID string) decimal.Decimal {
	total := decimal.Zero
	for _, dist := range s.dists {
		if dist.CaseID != caseID {
			continue
		}
		for _, line := range dist.Lines {
			total = total.Add(line.Amount)
		}
	}
	return total
}

// DeleteCaseData removes a case's financial records; the registry calls
// it when a case itself is deleted. Audit entries are kept.
func (s *Store) DeleteCaseData(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caseID = strings.TrimSpace(caseID)
	kept := s.transactions[:0]
	for _, txn := range s.transactions {
		if txn.CaseID != caseID {
			kept = append(kept, txn)
		}
	}
	s.transactions = kept
	for id, claim := range s.claims {
		if claim.CaseID == caseID {
			delete(s.claims, id)
		}
	}
	for id, dist := range s.dists {
		if dist.CaseID == caseID {
			delete(s.dists, id)
		}
	}
	delete(s.cases, caseID)
	return nil
}

// CreditorReferenced reports whether any claim or distribution line holds
// financial history for the creditor.
func (s *Store) CreditorReferenced(_ context.Context, creditorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creditorID = strings.TrimSpace(creditorID)
	for _, claim := range s.claims {
		if claim.CreditorID == creditorID {
			return true, nil
		}
	}
	for _, dist := range s.dists {
		for _, line := range dist.Lines {
			if line.CreditorID == creditorID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	pending := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.PublishedAt != nil {
			continue
		}
		pending = append(pending, ports.OutboxMessage{
			OutboxID:     record.OutboxID,
			EventType:    record.EventType,
			PartitionKey: record.PartitionKey,
			Payload:      append([]byte(nil), record.Payload...),
			CreatedAt:    record.CreatedAt,
		})
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].OutboxID < pending[j].OutboxID
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.outbox[strings.TrimSpace(outboxID)]
	if !exists {
		return domainerrors.ErrInvalidInput
	}
	published := publishedAt.UTC()
	record.PublishedAt = &published
	s.outbox[record.OutboxID] = record
	return nil
}

// AuditEntries returns a copy of the append-only activity log, newest
// last. Test helper; there is no mutation surface.
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
	record := outboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAtUTC.UTC(),
	}
	if record.OutboxID == "" {
		record.OutboxID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.outbox[record.OutboxID] = record
	return nil
}

func copyDistribution(dist entities.Distribution) entities.Distribution {
	copied := dist
	copied.Lines = append([]entities.DistributionLine(nil), dist.Lines...)
	return copied
}
