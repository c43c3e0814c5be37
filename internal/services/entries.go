package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type RecordEntryParams struct {
	OwnerID       int64
	AccountID     int64
	CategoryID    *int64
	Kind          core.Kind
	Amount        core.Money
	Date          core.Date
	Description   string
	Note          string
	PaymentMethod string
}

// EntryPatch lists the fields to change; nil fields are kept.
type EntryPatch struct {
	AccountID     *int64
	CategoryID    *int64
	ClearCategory bool
	Kind          *core.Kind
	Amount        *core.Money
	Date          *core.Date
	Description   *string
	Note          *string
	PaymentMethod *string
}

// EntryService records and edits manual entries, stamping each with its
// competence period.
type EntryService struct {
	storage  *storage.SQLiteRepository
	accounts *AccountService
}

func NewEntryService(storage *storage.SQLiteRepository, accounts *AccountService) *EntryService {
	return &EntryService{storage: storage, accounts: accounts}
}

func (s *EntryService) RecordEntry(ctx context.Context, p RecordEntryParams) (int64, error) {
	e := core.Entry{
		OwnerID:       p.OwnerID,
		AccountID:     p.AccountID,
		CategoryID:    p.CategoryID,
		Kind:          p.Kind,
		Amount:        p.Amount,
		Date:          p.Date,
		Description:   strings.TrimSpace(p.Description),
		Note:          strings.TrimSpace(p.Note),
		PaymentMethod: strings.TrimSpace(p.PaymentMethod),
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		acct, err := s.accounts.owned(ctx, q, p.OwnerID, p.AccountID)
		if err != nil {
			return err
		}
		if err := ownedCategory(ctx, q, p.OwnerID, p.CategoryID); err != nil {
			return err
		}
		competence := core.CompetencePeriod(acct.Billing(), e.Date)
		e.Competence = &competence

		id, err = q.InsertEntry(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		return enqueue(ctx, q, EventEntryRecorded, strconv.FormatInt(id, 10), e.OwnerID, entryEvent(e))
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Entry recorded",
		"entry_id", id,
		"account_id", e.AccountID,
		"kind", e.Kind,
		"amount_cents", e.Amount.Cents,
		"competence", e.Competence.String())
	return id, nil
}

// EditEntry applies patch to an entry. The competence period is recomputed
// only when the account or the date changes. Transfer legs are immutable.
func (s *EntryService) EditEntry(ctx context.Context, ownerID, id int64, patch EntryPatch) (core.Entry, error) {
	var updated core.Entry
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if e.OwnerID != ownerID {
			return fmt.Errorf("entry %d: %w", id, core.ErrForbidden)
		}
		if e.IsTransfer || e.TransferGroup != "" {
			return core.ErrTransferLeg
		}

		moved := false
		if patch.AccountID != nil && *patch.AccountID != e.AccountID {
			e.AccountID = *patch.AccountID
			moved = true
		}
		if patch.Date != nil && !patch.Date.Equal(e.Date.Time) {
			e.Date = *patch.Date
			moved = true
		}
		switch {
		case patch.ClearCategory:
			e.CategoryID = nil
		case patch.CategoryID != nil:
			e.CategoryID = patch.CategoryID
		}
		if patch.Kind != nil {
			e.Kind = *patch.Kind
		}
		if patch.Amount != nil {
			e.Amount = *patch.Amount
		}
		if patch.Description != nil {
			e.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Note != nil {
			e.Note = strings.TrimSpace(*patch.Note)
		}
		if patch.PaymentMethod != nil {
			e.PaymentMethod = strings.TrimSpace(*patch.PaymentMethod)
		}
		if err := e.Validate(); err != nil {
			return err
		}

		acct, err := s.accounts.owned(ctx, q, ownerID, e.AccountID)
		if err != nil {
			return err
		}
		if patch.CategoryID != nil && !patch.ClearCategory {
			if err := ownedCategory(ctx, q, ownerID, e.CategoryID); err != nil {
				return err
			}
		}
		if moved {
			competence := core.CompetencePeriod(acct.Billing(), e.Date)
			e.Competence = &competence
		}

		if err := q.UpdateEntry(ctx, e); err != nil {
			return err
		}
		updated = e
		return enqueue(ctx, q, EventEntryUpdated, strconv.FormatInt(id, 10), ownerID, entryEvent(e))
	})
	if err != nil {
		return core.Entry{}, err
	}
	return updated, nil
}

// DeleteEntry removes an entry. Deleting either leg of a transfer removes
// both.
func (s *EntryService) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	return s.storage.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if e.OwnerID != ownerID {
			return fmt.Errorf("entry %d: %w", id, core.ErrForbidden)
		}
		if e.TransferGroup != "" {
			n, err := q.DeleteTransferGroup(ctx, e.TransferGroup)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "Transfer deleted", "transfer_group", e.TransferGroup, "entries", n)
		} else if err := q.DeleteEntry(ctx, id); err != nil {
			return err
		}
		return enqueue(ctx, q, EventEntryDeleted, strconv.FormatInt(id, 10), ownerID, entryEvent(e))
	})
}

func entryEvent(e core.Entry) EntryEvent {
	return EntryEvent{
		EntryID:    e.ID,
		AccountID:  e.AccountID,
		Kind:       string(e.Kind),
		Amount:     e.Amount.String(),
		Date:       e.Date.String(),
		Competence: e.CompetencePeriod().String(),
	}
}
