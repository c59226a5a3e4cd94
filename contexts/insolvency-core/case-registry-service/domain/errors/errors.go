package errors

import "errors"

var (
	ErrInvalidInput       = errors.New("case registry input is invalid")
	ErrCaseNotFound       = errors.New("case not found")
	ErrDuplicateReference = errors.New("case reference already registered")
	ErrInvalidTransition  = errors.New("case status transition is not allowed")
	ErrCaseClosed         = errors.New("case is closed")
	ErrCreditorNotFound   = errors.New("creditor not found")
	ErrCreditorInUse      = errors.New("creditor is referenced by claims or distribution lines")
	ErrConflict           = errors.New("concurrent modification of registry record, retry the operation")
)
