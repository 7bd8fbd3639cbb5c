package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusProcessed  OutboxStatus = "PROCESSED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

const (
	EventCreditRequested = "CreditRequested"
	EventCreditApproved  = "CreditApproved"
	EventCreditRejected  = "CreditRejected"
	EventDebitPosted     = "DebitPosted"
)

type Outbox struct {
	ID            string
	AggregateID   string
	Type          string
	Payload       string
	Status        OutboxStatus
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

func NewOutbox(aggregateID, eventType, payload string) *Outbox {
	now := time.Now().UTC()
	return &Outbox{
		ID:            uuid.NewString(),
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       payload,
		Status:        OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}
