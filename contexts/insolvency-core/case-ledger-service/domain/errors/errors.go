package errors

import "errors"

var (
	ErrInvalidInput         = errors.New("case ledger input is invalid")
	ErrCaseNotFound         = errors.New("case not found")
	ErrCaseClosed           = errors.New("case is closed to ledger operations")
	ErrCreditorNotFound     = errors.New("creditor not found")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrDuplicateClaim       = errors.New("claim already lodged for this case and creditor")
	ErrInvalidTransition    = errors.New("claim status transition is not allowed")
	ErrDistributionNotFound = errors.New("distribution not found")
	ErrInvalidRound         = errors.New("distribution round number must exceed all prior rounds")
	ErrInsufficientFunds    = errors.New("distribution total exceeds undistributed available funds")
	ErrNoAdmittedClaims     = errors.New("case has no admitted claims")
	ErrConflict             = errors.New("concurrent modification of case, retry the operation")
)
