package entity

import (
	"errors"
	"fmt"
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

var (
	ErrAmountNotNumeric     = &ValidationError{Field: "amount", Reason: "must be a number"}
	ErrAmountMustBePositive = &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	ErrAmountNotWhole       = &ValidationError{Field: "amount", Reason: "must be a whole number of minor units"}
	ErrAmountTooLarge       = &ValidationError{Field: "amount", Reason: "is out of range"}
	ErrReferenceRequired    = &ValidationError{Field: "reference", Reason: "is required"}
	ErrProofRefRequired     = &ValidationError{Field: "proof_ref", Reason: "is required"}
	ErrAccountRequired      = &ValidationError{Field: "account", Reason: "is required"}
	ErrDescriptionRequired  = &ValidationError{Field: "description", Reason: "is required"}
	ErrIDRequired           = &ValidationError{Field: "id", Reason: "is required"}
	ErrReportedBalance      = &ValidationError{Field: "reported_balance", Reason: "must be a number"}
)

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidStateTransition = errors.New("transaction is not pending")
	ErrInvalidTargetStatus    = errors.New("target status must be APPROVED or REJECTED")
	ErrNotCreditRequest       = errors.New("only credit requests can be reviewed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrOutboxEventNotFound    = errors.New("outbox event not found")

	ErrDuplicateTransaction    = errors.New("transaction id already exists")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrIdempotencyKeyMismatch  = errors.New("idempotency key already used for a different request")
)

// InsufficientFundsError carries the figures a caller needs to top up.
type InsufficientFundsError struct {
	Requested int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
