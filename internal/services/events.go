package services

import (
	"context"
	"encoding/json"
	"fmt"

	"ledger/internal/storage"
)

// Event types written to the outbox. The relay publishes each one with its
// type as routing key.
const (
	EventEntryRecorded        = "entry.recorded"
	EventEntryUpdated         = "entry.updated"
	EventEntryDeleted         = "entry.deleted"
	EventRecurrencePosted     = "recurrence.posted"
	EventInstallmentCreated   = "installment.created"
	EventInstallmentCancelled = "installment.cancelled"
	EventTransferCreated      = "transfer.created"
	EventEntrySettled         = "entry.settled"
)

type EntryEvent struct {
	EntryID    int64  `json:"entry_id"`
	AccountID  int64  `json:"account_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Competence string `json:"competence"`
}

type RecurrencePostedEvent struct {
	RecurringID int64   `json:"recurring_id"`
	EntryIDs    []int64 `json:"entry_ids"`
	NextDue     string  `json:"next_due"`
	Active      bool    `json:"active"`
}

type InstallmentCreatedEvent struct {
	PlanID   int64   `json:"plan_id"`
	Total    string  `json:"total"`
	Count    int     `json:"count"`
	EntryIDs []int64 `json:"entry_ids"`
}

type InstallmentCancelledEvent struct {
	PlanID         int64  `json:"plan_id"`
	RemovedEntries int64  `json:"removed_entries"`
	Today          string `json:"today"`
}

type TransferEvent struct {
	TransferGroup string `json:"transfer_group"`
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
}

type SettlementEvent struct {
	EntryID       int64  `json:"entry_id"`
	TransferGroup string `json:"transfer_group"`
	BankAccountID int64  `json:"bank_account_id"`
	SettledOn     string `json:"settled_on"`
}

// enqueue stores the event in the same transaction as the change it
// describes.
func enqueue(ctx context.Context, q *storage.Queries, eventType, aggregateID string, ownerID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	_, err = q.EnqueueEvent(ctx, storage.EnqueueEventParams{
		EventType:   eventType,
		AggregateID: aggregateID,
		OwnerID:     ownerID,
		Payload:     body,
	})
	return err
}
