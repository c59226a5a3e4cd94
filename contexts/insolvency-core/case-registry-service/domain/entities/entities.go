package entities

import "time"

type CaseStatus string

const (
	CaseStatusOpen   CaseStatus = "open"
	CaseStatusOnHold CaseStatus = "on_hold"
	CaseStatusClosed CaseStatus = "closed"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusOpen, CaseStatusOnHold, CaseStatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitionCase encodes the case lifecycle: open and on_hold flip
// freely between each other and either may close; closed is terminal.
func CanTransitionCase(from, to CaseStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case CaseStatusOpen:
		return to == CaseStatusOnHold || to == CaseStatusClosed
	case CaseStatusOnHold:
		return to == CaseStatusOpen || to == CaseStatusClosed
	default:
		return false
	}
}

// Case is an insolvency proceeding. Reference is the human-facing court
// or practice number and is unique across the registry.
type Case struct {
	ID        string
	Reference string
	Status    CaseStatus
	Stage     string
	OpenedAt  time.Time
	ClosedAt  *time.Time
	UpdatedAt time.Time
}

func (c Case) Closed() bool { return c.Status == CaseStatusClosed }

type Creditor struct {
	ID           string
	Name         string
	ContactEmail string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
