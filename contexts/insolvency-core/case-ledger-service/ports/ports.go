package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"liquorum/contexts/insolvency-core/case-ledger-service/domain/entities"
	"liquorum/contexts/insolvency-core/case-ledger-service/domain/services"
	"liquorum/internal/shared/events"
	"liquorum/internal/shared/outbox"
)

// Case statuses as recorded by the case registry. The ledger consumes
// them read-only.
const (
	CaseStatusOpen   = "open"
	CaseStatusOnHold = "on_hold"
	CaseStatusClosed = "closed"
)

// CaseRecord is the read-only view of a registry case the ledger needs.
type CaseRecord struct {
	ID        string
	Reference string
	Status    string
	Stage     string
	OpenedAt  time.Time
	ClosedAt  *time.Time
}

func (c CaseRecord) Closed() bool {
	return c.Status == CaseStatusClosed
}

// AuditEntry is one immutable activity-log record written in the same
// transaction as the mutation it mirrors. There is no update or delete.
type AuditEntry struct {
	EntryID    string
	CaseID     string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Snapshot   any
	CreatedAt  time.Time
}

type EventEnvelope = events.Envelope

type FundsSummary struct {
	TotalIn        decimal.Decimal
	TotalOut       decimal.Decimal
	AvailableFunds decimal.Decimal
}

type ClaimsVerification struct {
	TotalConsidered int
	AdmittedCount   int
	AdmittedPct     decimal.Decimal
}

type DistributionProgress struct {
	AvailableFunds   decimal.Decimal
	DistributedTotal decimal.Decimal
	Undistributed    decimal.Decimal
}

// DistributionSnapshot is the consistent cross-entity view a payout round
// is planned against: funds, prior rounds and admitted claims read as of
// a single instant.
type DistributionSnapshot struct {
	Case             CaseRecord
	AvailableFunds   decimal.Decimal
	DistributedTotal decimal.Decimal
	MaxRoundNo       int
	HasRounds        bool
	AdmittedClaims   []services.AdmittedClaim
}

// DistributionPlan is everything the repository persists atomically when
// a round is committed.
type DistributionPlan struct {
	Distribution entities.Distribution
	Audit        AuditEntry
	Event        EventEnvelope
}

// DistributionPlanner validates preconditions and computes the plan from
// the snapshot. The repository invokes it inside the transaction that
// commits the plan, so the snapshot cannot be invalidated mid-computation.
type DistributionPlanner func(ctx context.Context, snapshot DistributionSnapshot) (DistributionPlan, error)

type Repository interface {
	GetCase(ctx context.Context, caseID string) (CaseRecord, error)

	RecordTransaction(ctx context.Context, txn entities.Transaction, entry AuditEntry, event EventEnvelope) (entities.Transaction, error)
	ListTransactions(ctx context.Context, caseID string) ([]entities.Transaction, error)
	FundsSummary(ctx context.Context, caseID string) (FundsSummary, error)

	LodgeClaim(ctx context.Context, claim entities.Claim, entry AuditEntry, event EventEnvelope) error
	GetClaim(ctx context.Context, claimID string) (entities.Claim, error)
	ListClaims(ctx context.Context, caseID string) ([]entities.Claim, error)
	UpdateClaim(ctx context.Context, claim entities.Claim, expectedStatus entities.ClaimStatus, entry AuditEntry, event EventEnvelope) error
	AdmittedTotal(ctx context.Context, caseID string) (decimal.Decimal, error)

	DeclareDistribution(ctx context.Context, caseID string, plan DistributionPlanner) (entities.Distribution, error)
	GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error)
	ListDistributions(ctx context.Context, caseID string) ([]entities.Distribution, error)
	DistributedTotal(ctx context.Context, caseID string) (decimal.Decimal, error)
}

// CaseDependents is consumed by the case registry: cascade removal of a
// case's financial records and the restrict-on-delete creditor check.
type CaseDependents interface {
	DeleteCaseData(ctx context.Context, caseID string) error
	CreditorReferenced(ctx context.Context, creditorID string) (bool, error)
}

type OutboxMessage = outbox.Message

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
