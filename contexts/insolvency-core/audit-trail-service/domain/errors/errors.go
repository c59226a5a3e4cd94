package errors

import "errors"

var (
	ErrInvalidInput  = errors.New("audit trail input is invalid")
	ErrInvalidCursor = errors.New("history cursor is malformed")
)
