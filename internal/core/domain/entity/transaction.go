package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	Direction         string
	TransactionStatus string
)

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
)

// Transaction is one immutable ledger line. Only Status, UpdatedAt and, on
// rejection, Description change after creation.
type Transaction struct {
	ID             string
	Account        string
	Amount         int64
	Direction      Direction
	Status         TransactionStatus
	Reference      string
	ProofRef       string
	Description    string
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewCreditRequest builds a pending top-up. Fields are checked in the order
// amount, reference, proof_ref, account.
func NewCreditRequest(account string, amount int64, reference, proofRef string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrAmountMustBePositive
	}
	if strings.TrimSpace(reference) == "" {
		return nil, ErrReferenceRequired
	}
	if strings.TrimSpace(proofRef) == "" {
		return nil, ErrProofRefRequired
	}
	if strings.TrimSpace(account) == "" {
		return nil, ErrAccountRequired
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.NewString(),
		Account:   strings.TrimSpace(account),
		Amount:    amount,
		Direction: DirectionCredit,
		Status:    StatusPending,
		Reference: strings.TrimSpace(reference),
		ProofRef:  strings.TrimSpace(proofRef),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewDebit builds a spend. Debits are born approved: a spend either commits
// in full or is never recorded.
func NewDebit(account string, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrAmountMustBePositive
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}
	if strings.TrimSpace(account) == "" {
		return nil, ErrAccountRequired
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:          uuid.NewString(),
		Account:     strings.TrimSpace(account),
		Amount:      amount,
		Direction:   DirectionDebit,
		Status:      StatusApproved,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *Transaction) IsCredit() bool {
	return t.Direction == DirectionCredit
}

// SameRequest reports whether req, a record built from a new request, asks for
// the operation t already records. Fields a review may change are ignored.
func (t *Transaction) SameRequest(req *Transaction) bool {
	if t.Direction != req.Direction || t.Account != req.Account || t.Amount != req.Amount {
		return false
	}
	if t.IsCredit() {
		return t.Reference == req.Reference && t.ProofRef == req.ProofRef
	}
	return t.Description == req.Description
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusApproved || t.Status == StatusRejected
}

// ValidateTransition reports whether a record in status from may move to to.
func ValidateTransition(from, to TransactionStatus) error {
	if to != StatusApproved && to != StatusRejected {
		return ErrInvalidTargetStatus
	}
	if from != StatusPending {
		return ErrInvalidStateTransition
	}
	return nil
}

// ApplyTransition moves a pending record to a terminal status. note, when
// non-empty, replaces Description (used for rejection reasons).
func (t *Transaction) ApplyTransition(to TransactionStatus, note string, at time.Time) error {
	if err := ValidateTransition(t.Status, to); err != nil {
		return err
	}
	t.Status = to
	if note = strings.TrimSpace(note); note != "" {
		t.Description = note
	}
	t.UpdatedAt = at.UTC()
	return nil
}

// FoldBalance sums approved credits minus approved debits. The result is not
// clamped; callers decide what a negative value means.
func FoldBalance(txs []*Transaction) int64 {
	var balance int64
	for _, tx := range txs {
		if tx.Status != StatusApproved {
			continue
		}
		switch tx.Direction {
		case DirectionCredit:
			balance += tx.Amount
		case DirectionDebit:
			balance -= tx.Amount
		}
	}
	return balance
}
