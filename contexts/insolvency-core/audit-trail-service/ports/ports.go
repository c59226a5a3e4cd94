package ports

import (
	"context"
	"time"

	"liquorum/contexts/insolvency-core/audit-trail-service/domain/entities"
)

// HistoryQuery filters the activity log. Since is an inclusive lower
// bound on created_at; Before/BeforeID implement keyset pagination over
// (created_at DESC, id DESC).
type HistoryQuery struct {
	CaseID     string
	EntityType string
	EntityID   string
	Action     string
	Limit      int
	Since      *time.Time
	Before     *time.Time
	BeforeID   string
}

type HistoryPage struct {
	Entries []entities.Entry
	HasMore bool
}

type Reader interface {
	History(ctx context.Context, query HistoryQuery) (HistoryPage, error)
}

// Appender adds manually authored entries, such as practitioner notes.
// Module-generated entries are written by the owning module inside its
// own transactions and never pass through here.
type Appender interface {
	Append(ctx context.Context, entry entities.Entry) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
