package ports

import (
	"context"
	"time"

	"liquorum/contexts/insolvency-core/case-registry-service/domain/entities"
	"liquorum/internal/shared/events"
	"liquorum/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

type OutboxMessage = outbox.Message

// AuditEntry mirrors one row of the shared activity log. Registry
// mutations carry their entry into the repository so the audit write
// shares the mutation's transaction.
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

type Repository interface {
	CreateCase(ctx context.Context, c entities.Case, entry AuditEntry, event EventEnvelope) error
	GetCase(ctx context.Context, caseID string) (entities.Case, error)
	ListCases(ctx context.Context) ([]entities.Case, error)
	// UpdateCase only lands when the stored status still matches
	// expectedStatus; a mismatch reports ErrConflict.
	UpdateCase(ctx context.Context, c entities.Case, expectedStatus entities.CaseStatus, entry AuditEntry, event EventEnvelope) error
	DeleteCase(ctx context.Context, caseID string, entry AuditEntry, event EventEnvelope) error

	CreateCreditor(ctx context.Context, creditor entities.Creditor, entry AuditEntry, event EventEnvelope) error
	GetCreditor(ctx context.Context, creditorID string) (entities.Creditor, error)
	ListCreditors(ctx context.Context) ([]entities.Creditor, error)
	UpdateCreditor(ctx context.Context, creditor entities.Creditor, entry AuditEntry, event EventEnvelope) error
	DeleteCreditor(ctx context.Context, creditorID string, entry AuditEntry, event EventEnvelope) error
}

// CaseDependents is the registry's view of the ledger: cascade removal
// of a case's financial records and the restrict-on-delete creditor
// check. The ledger's repository satisfies it structurally.
type CaseDependents interface {
	DeleteCaseData(ctx context.Context, caseID string) error
	CreditorReferenced(ctx context.Context, creditorID string) (bool, error)
}

// CaseReplica mirrors registry state into a sibling module's read-only
// case view. Only the in-memory wiring needs it; against postgres the
// siblings read the registry's tables directly.
type CaseReplica interface {
	CaseChanged(c entities.Case)
	CaseRemoved(caseID string)
	CreditorChanged(creditor entities.Creditor)
	CreditorRemoved(creditorID string)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
