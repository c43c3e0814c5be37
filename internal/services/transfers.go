package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// Names of the per-owner system categories stamped on transfer legs.
const (
	TransferInCategory  = "Transfer in"
	TransferOutCategory = "Transfer out"
)

type TransferParams struct {
	OwnerID       int64
	FromAccountID int64
	ToAccountID   int64
	Amount        core.Money
	Date          core.Date
	Description   string
	Note          string
}

type SettleParams struct {
	EntryID       int64
	OwnerID       int64
	BankAccountID int64
	SettleDate    core.Date
}

// TransferService composes the paired entries of transfers and credit-card
// bill settlements.
type TransferService struct {
	storage  *storage.SQLiteRepository
	accounts *AccountService
	newGroup func() string
}

func NewTransferService(storage *storage.SQLiteRepository, accounts *AccountService) *TransferService {
	return &TransferService{
		storage:  storage,
		accounts: accounts,
		newGroup: func() string { return uuid.NewString() },
	}
}

// CreateTransfer writes an expense on the source account and a matching
// income on the destination, linked by a fresh transfer group id.
func (s *TransferService) CreateTransfer(ctx context.Context, p TransferParams) (string, error) {
	if p.FromAccountID == p.ToAccountID {
		return "", core.ErrSameAccount
	}
	if err := p.Amount.Validate(); err != nil {
		return "", err
	}
	if err := p.Date.Validate(); err != nil {
		return "", err
	}
	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = "Transfer"
	}

	group := s.newGroup()
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := s.accounts.owned(ctx, q, p.OwnerID, p.FromAccountID); err != nil {
			return err
		}
		if _, err := s.accounts.owned(ctx, q, p.OwnerID, p.ToAccountID); err != nil {
			return err
		}

		competence := core.MonthOf(p.Date)
		out := core.Entry{
			OwnerID:       p.OwnerID,
			AccountID:     p.FromAccountID,
			Kind:          core.Expense,
			Amount:        p.Amount,
			Date:          p.Date,
			Competence:    &competence,
			Description:   description,
			Note:          p.Note,
			TransferGroup: group,
			IsTransfer:    true,
		}
		in := out
		in.AccountID = p.ToAccountID
		in.Kind = core.Income

		if err := s.insertPair(ctx, q, out, in); err != nil {
			return err
		}
		return enqueue(ctx, q, EventTransferCreated, group, p.OwnerID, TransferEvent{
			TransferGroup: group,
			FromAccountID: p.FromAccountID,
			ToAccountID:   p.ToAccountID,
			Amount:        p.Amount.String(),
			Date:          p.Date.String(),
		})
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Transfer created",
		"transfer_group", group,
		"from_account_id", p.FromAccountID,
		"to_account_id", p.ToAccountID,
		"amount_cents", p.Amount.Cents)
	return group, nil
}

// SettleCreditCardExpense marks a card expense as paid from a bank account
// and records the payment as a transfer from the bank to the card. An entry
// can be settled only once.
func (s *TransferService) SettleCreditCardExpense(ctx context.Context, p SettleParams) (string, error) {
	if err := p.SettleDate.Validate(); err != nil {
		return "", err
	}

	group := s.newGroup()
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		entry, err := q.GetEntry(ctx, p.EntryID)
		if err != nil {
			return err
		}
		if entry.OwnerID != p.OwnerID {
			return fmt.Errorf("entry %d: %w", p.EntryID, core.ErrForbidden)
		}
		if entry.Settled {
			return core.ErrAlreadySettled
		}
		if entry.Kind != core.Expense {
			return core.ErrNotExpense
		}
		card, err := s.accounts.get(ctx, q, entry.AccountID)
		if err != nil {
			return err
		}
		if card.Type != core.CreditCard {
			return core.ErrNotCreditCard
		}
		bank, err := s.accounts.owned(ctx, q, p.OwnerID, p.BankAccountID)
		if err != nil {
			return err
		}
		if bank.Type == core.CreditCard {
			return core.ErrPayingWithCard
		}

		settledAt := p.SettleDate.Time
		ok, err := q.MarkEntrySettled(ctx, entry.ID, settledAt, bank.ID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrAlreadySettled
		}

		competence := core.MonthOf(p.SettleDate)
		bankID := bank.ID
		payment := core.Entry{
			OwnerID:          p.OwnerID,
			AccountID:        bank.ID,
			Kind:             core.Expense,
			Amount:           entry.Amount,
			Date:             p.SettleDate,
			Competence:       &competence,
			Description:      settlementLabel(entry.Description),
			TransferGroup:    group,
			IsTransfer:       true,
			Settled:          true,
			SettledAt:        &settledAt,
			SettledAccountID: &bankID,
		}
		credit := payment
		credit.AccountID = card.ID
		credit.Kind = core.Income

		if err := s.insertPair(ctx, q, payment, credit); err != nil {
			return err
		}
		return enqueue(ctx, q, EventEntrySettled, group, p.OwnerID, SettlementEvent{
			EntryID:       entry.ID,
			TransferGroup: group,
			BankAccountID: bank.ID,
			SettledOn:     p.SettleDate.String(),
		})
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Credit card expense settled",
		"entry_id", p.EntryID,
		"bank_account_id", p.BankAccountID,
		"transfer_group", group)
	return group, nil
}

// insertPair stamps the system transfer categories on both legs and inserts
// them. out must be the expense leg.
func (s *TransferService) insertPair(ctx context.Context, q *storage.Queries, out, in core.Entry) error {
	outCat, err := q.UpsertSystemCategory(ctx, out.OwnerID, core.Expense, TransferOutCategory)
	if err != nil {
		return err
	}
	inCat, err := q.UpsertSystemCategory(ctx, in.OwnerID, core.Income, TransferInCategory)
	if err != nil {
		return err
	}
	out.CategoryID = &outCat
	in.CategoryID = &inCat

	if _, err := q.InsertEntry(ctx, out); err != nil {
		return fmt.Errorf("insert transfer out leg: %w", err)
	}
	if _, err := q.InsertEntry(ctx, in); err != nil {
		return fmt.Errorf("insert transfer in leg: %w", err)
	}
	return nil
}

func settlementLabel(description string) string {
	if description == "" {
		return "Card payment"
	}
	return "Card payment: " + description
}
