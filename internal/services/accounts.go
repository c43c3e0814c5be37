package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/storage"
)

// AccountService owns accounts and categories and serves the cached billing
// configuration every posting path needs.
type AccountService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRU[int64, core.Account]
}

func NewAccountService(storage *storage.SQLiteRepository, cacheSize int, cacheTTL time.Duration) *AccountService {
	return &AccountService{
		storage: storage,
		cache:   cache.NewLRU[int64, core.Account](cacheSize, cacheTTL),
	}
}

// Cache exposes the account cache so the caller can schedule its cleanup.
func (s *AccountService) Cache() *cache.LRU[int64, core.Account] {
	return s.cache
}

func (s *AccountService) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.Queries().CreateAccount(ctx, a)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Account created", "account_id", id, "owner_id", a.OwnerID, "type", a.Type)
	return id, nil
}

// UpdateAccount changes name, type or closing day. Entries already posted
// keep their competence period.
func (s *AccountService) UpdateAccount(ctx context.Context, ownerID int64, a core.Account) error {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return err
	}
	q := s.storage.Queries()
	if _, err := s.owned(ctx, q, ownerID, a.ID); err != nil {
		return err
	}
	if err := q.UpdateAccount(ctx, a); err != nil {
		return err
	}
	s.cache.Delete(a.ID)
	return nil
}

// GetAccount returns the account if it belongs to ownerID.
func (s *AccountService) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	return s.owned(ctx, s.storage.Queries(), ownerID, id)
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	return s.storage.Queries().ListAccounts(ctx, ownerID)
}

func (s *AccountService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return 0, fmt.Errorf("%w: empty category name", core.ErrInvalidArgument)
	}
	if !c.Kind.Valid() {
		return 0, fmt.Errorf("%w: invalid kind %q", core.ErrInvalidArgument, c.Kind)
	}
	c.IsSystem = false
	return s.storage.Queries().CreateCategory(ctx, c)
}

// ComputeCompetencePeriod returns the reporting period an entry dated date on
// the account would be stamped with.
func (s *AccountService) ComputeCompetencePeriod(ctx context.Context, accountID int64, date core.Date) (core.YearMonth, error) {
	if err := date.Validate(); err != nil {
		return core.YearMonth{}, err
	}
	a, err := s.get(ctx, s.storage.Queries(), accountID)
	if err != nil {
		return core.YearMonth{}, err
	}
	return core.CompetencePeriod(a.Billing(), date), nil
}

// get reads through the cache using q, which may be a transaction.
func (s *AccountService) get(ctx context.Context, q *storage.Queries, id int64) (core.Account, error) {
	if a, ok := s.cache.Get(id); ok {
		return a, nil
	}
	a, err := q.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	s.cache.Set(id, a)
	return a, nil
}

// owned loads the account and checks it belongs to ownerID.
func (s *AccountService) owned(ctx context.Context, q *storage.Queries, ownerID, id int64) (core.Account, error) {
	a, err := s.get(ctx, q, id)
	if err != nil {
		return core.Account{}, err
	}
	if a.OwnerID != ownerID {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrForbidden)
	}
	return a, nil
}

// ownedCategory accepts a nil category.
func ownedCategory(ctx context.Context, q *storage.Queries, ownerID int64, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := q.GetCategory(ctx, *id)
	if err != nil {
		return err
	}
	if c.OwnerID != ownerID {
		return fmt.Errorf("category %d: %w", *id, core.ErrForbidden)
	}
	return nil
}
