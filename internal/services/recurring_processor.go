package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"ledger/internal/core"
	"ledger/internal/storage"
)

const DefaultRecurringBatchSize = 100

// RunResult summarizes one scheduler run.
type RunResult struct {
	Posted int
	Failed []int64
}

// RecurringProcessor posts the entries owed by active recurring definitions,
// catching up on every occurrence missed since the last run.
type RecurringProcessor struct {
	storage  *storage.SQLiteRepository
	accounts *AccountService

	// statementAware stamps recurring entries with the credit-card competence
	// period instead of their own month.
	statementAware bool
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, accounts *AccountService, statementAware bool) *RecurringProcessor {
	return &RecurringProcessor{
		storage:        storage,
		accounts:       accounts,
		statementAware: statementAware,
	}
}

func (p *RecurringProcessor) CreateDefinition(ctx context.Context, rd core.RecurringDefinition) (int64, error) {
	if err := rd.Validate(); err != nil {
		return 0, err
	}
	if _, err := GetAdvancer(rd.Frequency); err != nil {
		return 0, err
	}
	if rd.NextDue.IsZero() {
		rd.NextDue = rd.StartDate
	}
	rd.Active = true

	var id int64
	err := p.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := p.accounts.owned(ctx, q, rd.OwnerID, rd.AccountID); err != nil {
			return err
		}
		if err := ownedCategory(ctx, q, rd.OwnerID, rd.CategoryID); err != nil {
			return err
		}
		var err error
		id, err = q.CreateRecurring(ctx, rd)
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Recurring definition created",
		"recurring_id", id,
		"frequency", rd.Frequency,
		"interval", rd.Interval,
		"next_due", rd.NextDue.String())
	return id, nil
}

// RunRecurrencePosting processes every definition due on or before asOf, in
// pages of batchSize. Each definition commits or rolls back on its own; the
// returned error aggregates the per-definition failures and is nil when all
// of them succeeded.
func (p *RecurringProcessor) RunRecurrencePosting(ctx context.Context, asOf core.Date, batchSize int) (RunResult, error) {
	var result RunResult
	if p.storage == nil {
		return result, fmt.Errorf("processor not properly initialized")
	}
	if err := asOf.Validate(); err != nil {
		return result, err
	}
	if batchSize <= 0 {
		batchSize = DefaultRecurringBatchSize
	}

	var errs *multierror.Error
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return result, multierror.Append(errs, err).ErrorOrNil()
		}

		batch, err := p.storage.Queries().ListDueRecurring(ctx, asOf, afterID, batchSize)
		if err != nil {
			return result, multierror.Append(errs, err).ErrorOrNil()
		}
		if len(batch) == 0 {
			break
		}

		for _, rd := range batch {
			afterID = rd.ID

			posted, err := p.postDefinition(ctx, rd.ID, asOf)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to post recurring definition",
					"recurring_id", rd.ID,
					"next_due", rd.NextDue.String(),
					"error", err)
				result.Failed = append(result.Failed, rd.ID)
				errs = multierror.Append(errs, fmt.Errorf("recurring definition %d: %w", rd.ID, err))
				continue
			}
			result.Posted += posted
		}

		if len(batch) < batchSize {
			break
		}
	}

	slog.InfoContext(ctx, "Recurring posting complete",
		"as_of", asOf.String(),
		"posted", result.Posted,
		"failed", len(result.Failed))

	return result, errs.ErrorOrNil()
}

// postDefinition emits every occurrence of one definition up to asOf and
// moves its cursor, all in one transaction.
func (p *RecurringProcessor) postDefinition(ctx context.Context, id int64, asOf core.Date) (int, error) {
	var posted int
	err := p.storage.InTx(ctx, func(q *storage.Queries) error {
		posted = 0

		rd, err := q.GetRecurring(ctx, id)
		if err != nil {
			return err
		}
		if !rd.Active || rd.NextDue.After(asOf) {
			return nil
		}
		advancer, err := GetAdvancer(rd.Frequency)
		if err != nil {
			return err
		}
		var billing core.BillingConfig
		if p.statementAware {
			acct, err := p.accounts.get(ctx, q, rd.AccountID)
			if err != nil {
				return err
			}
			billing = acct.Billing()
		}

		hasEnd := !rd.EndDate.IsZero()
		cursor := rd.NextDue
		active := true
		var entryIDs []int64

		for active && !cursor.After(asOf) {
			if hasEnd && cursor.After(rd.EndDate) {
				active = false
				break
			}

			competence := core.MonthOf(cursor)
			if p.statementAware {
				competence = core.CompetencePeriod(billing, cursor)
			}
			recurringID := rd.ID
			entryID, err := q.InsertEntry(ctx, core.Entry{
				OwnerID:     rd.OwnerID,
				AccountID:   rd.AccountID,
				CategoryID:  rd.CategoryID,
				Kind:        rd.Kind,
				Amount:      rd.Amount,
				Date:        cursor,
				Competence:  &competence,
				Description: rd.Description,
				RecurringID: &recurringID,
			})
			if err != nil {
				return err
			}
			entryIDs = append(entryIDs, entryID)

			next := advancer.Next(rd, cursor)
			if !next.After(cursor) {
				return fmt.Errorf("%w: frequency %q did not advance past %s", core.ErrInvalidState, rd.Frequency, cursor)
			}
			cursor = next
			if hasEnd && cursor.After(rd.EndDate) {
				active = false
			}
		}

		if err := q.AdvanceRecurring(ctx, rd.ID, rd.NextDue, cursor, active); err != nil {
			return err
		}
		if !active {
			slog.InfoContext(ctx, "Recurring definition reached its end date",
				"recurring_id", rd.ID,
				"end_date", rd.EndDate.String())
		}
		if len(entryIDs) > 0 {
			err := enqueue(ctx, q, EventRecurrencePosted, strconv.FormatInt(rd.ID, 10), rd.OwnerID, RecurrencePostedEvent{
				RecurringID: rd.ID,
				EntryIDs:    entryIDs,
				NextDue:     cursor.String(),
				Active:      active,
			})
			if err != nil {
				return err
			}
		}
		posted = len(entryIDs)
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			slog.WarnContext(ctx, "Recurring definition advanced concurrently", "recurring_id", id)
		}
		return 0, err
	}
	return posted, nil
}

// Run posts due definitions once immediately and then on every tick of
// interval, until ctx is cancelled. now supplies the reference date of each
// run. Failures are logged and the loop keeps going.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration, batchSize int, now func() time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("%w: scheduler interval must be positive", core.ErrInvalidArgument)
	}
	slog.InfoContext(ctx, "Recurrence scheduler started", "interval", interval, "batch_size", batchSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		asOf := core.DateOf(now())
		if _, err := p.RunRecurrencePosting(ctx, asOf, batchSize); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Recurrence run finished with errors", "as_of", asOf.String(), "error", err)
		}

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Recurrence scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
