package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"wallet-service/internal/core/domain/entity"
)

type walletEvent struct {
	TransactionID string    `json:"transactionId"`
	Account       string    `json:"account"`
	Amount        int64     `json:"amount"`
	Direction     string    `json:"direction"`
	Status        string    `json:"status"`
	Reference     string    `json:"reference,omitempty"`
	ProofRef      string    `json:"proofRef,omitempty"`
	Description   string    `json:"description,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func newWalletEvent(eventType string, tx *entity.Transaction) (*entity.Outbox, error) {
	payload, err := json.Marshal(walletEvent{
		TransactionID: tx.ID,
		Account:       tx.Account,
		Amount:        tx.Amount,
		Direction:     string(tx.Direction),
		Status:        string(tx.Status),
		Reference:     tx.Reference,
		ProofRef:      tx.ProofRef,
		Description:   tx.Description,
		OccurredAt:    tx.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return entity.NewOutbox(tx.ID, eventType, string(payload)), nil
}
