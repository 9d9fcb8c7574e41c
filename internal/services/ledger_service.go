package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ErrInvalidInput wraps validation failures of user-submitted records.
var ErrInvalidInput = errors.New("invalid input")

// LedgerService handles direct record management and the dashboard views.
type LedgerService struct {
	store store.Store
	newID IDGenerator
}

func NewLedgerService(st store.Store, newID IDGenerator) *LedgerService {
	if newID == nil {
		newID = NewID
	}
	return &LedgerService{store: st, newID: newID}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// checkCategory verifies that a transaction reference points at an existing
// category.
func (s *LedgerService) checkCategory(ctx context.Context, id *string) error {
	if _, err := s.store.Category(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid(fmt.Errorf("unknown category %q", core.StringValue(id)))
		}
		return err
	}
	return nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.checkCategory(ctx, d.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	date, _ := core.CanonicalDate(d.Date)
	d.Date = date

	tx := d.WithID(s.newID())
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	return tx, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.TransactionDraft = tx.TransactionDraft.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.checkCategory(ctx, tx.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	date, _ := core.CanonicalDate(tx.Date)
	tx.Date = date

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// CreateCategory adds a category. Names are not required to be unique here;
// duplicate suppression only applies to imports.
func (s *LedgerService) CreateCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}
	c := d.WithID(s.newID())
	if err := s.store.AppendCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.CategoryDraft = c.CategoryDraft.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// Transactions lists the transactions matching f, newest first.
func (s *LedgerService) Transactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.FilterTransactions(txs, f), nil
}

func (s *LedgerService) Recent(ctx context.Context, n int) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.RecentTransactions(txs, n), nil
}

func (s *LedgerService) Summary(ctx context.Context) (core.Summary, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Summarize(txs), nil
}

// Breakdown returns expense totals per category.
func (s *LedgerService) Breakdown(ctx context.Context) ([]core.CategoryAmount, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return core.BreakdownByCategory(txs, cats), nil
}
