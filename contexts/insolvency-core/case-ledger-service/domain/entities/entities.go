package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindReceipt  TransactionKind = "receipt"
	TransactionKindPayment  TransactionKind = "payment"
	TransactionKindFee      TransactionKind = "fee"
	TransactionKindInterest TransactionKind = "interest"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindReceipt, TransactionKindPayment, TransactionKindFee, TransactionKindInterest:
		return true
	default:
		return false
	}
}

// Inflow reports whether the kind increases a case's available funds.
func (k TransactionKind) Inflow() bool {
	return k == TransactionKindReceipt || k == TransactionKindInterest
}

// Transaction is an immutable money movement on a case. Corrections are
// recorded as new offsetting transactions, never as edits.
type Transaction struct {
	ID         string
	CaseID     string
	Kind       TransactionKind
	Amount     decimal.Decimal
	Currency   string
	OccurredAt time.Time
	Seq        int64
	Reference  string
	Notes      string
	RecordedAt time.Time
}

type ClaimStatus string

const (
	ClaimStatusLodged      ClaimStatus = "lodged"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusAdmitted    ClaimStatus = "admitted"
	ClaimStatusRejected    ClaimStatus = "rejected"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusLodged, ClaimStatusUnderReview, ClaimStatusAdmitted, ClaimStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether a claim can never leave this status.
// Re-adjudication is not supported; a reopened dispute is a new claim.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusAdmitted || s == ClaimStatusRejected
}

// CanTransitionClaim encodes the adjudication graph:
// lodged -> {under_review, admitted, rejected}, under_review -> {admitted, rejected}.
func CanTransitionClaim(from ClaimStatus, to ClaimStatus) bool {
	if from.Terminal() || !to.Valid() || from == to {
		return false
	}
	switch from {
	case ClaimStatusLodged:
		return to == ClaimStatusUnderReview || to == ClaimStatusAdmitted || to == ClaimStatusRejected
	case ClaimStatusUnderReview:
		return to == ClaimStatusAdmitted || to == ClaimStatusRejected
	default:
		return false
	}
}

// Claim is a creditor claim against a case. AmountAdmitted is non-nil
// exactly when Status is admitted.
type Claim struct {
	ID             string
	CaseID         string
	CreditorID     string
	AmountClaimed  decimal.Decimal
	AmountAdmitted *decimal.Decimal
	Status         ClaimStatus
	LodgedAt       time.Time
	AdjudicatedAt  *time.Time
	UpdatedAt      time.Time
}

// Distribution is a committed payout round. TotalAmount is fixed once
// declared and equals the sum of its lines exactly.
type Distribution struct {
	ID          string
	CaseID      string
	RoundNo     int
	TotalAmount decimal.Decimal
	WindowStart *time.Time
	WindowEnd   *time.Time
	DeclaredAt  time.Time
	Lines       []DistributionLine
}

type DistributionLine struct {
	ID             string
	DistributionID string
	CreditorID     string
	Amount         decimal.Decimal
}
