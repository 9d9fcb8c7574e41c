package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// Keys under which the two collections are persisted.
const (
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrProtectedCategory is returned when deleting the Uncategorized sentinel.
	ErrProtectedCategory = errors.New("category cannot be deleted")
)

// Ports used by the import/export services.
type (
	TransactionAppender interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) error
	}

	CategoryAppender interface {
		AppendCategory(ctx context.Context, c core.Category) error
	}

	TransactionLister interface {
		// ListTransactions returns a snapshot of all transactions in insertion order.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	CategoryLister interface {
		// ListCategories returns a snapshot of the current categories, the
		// Uncategorized sentinel included.
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// Store is the full collaborator used by the ledger and the HTTP API.
	Store interface {
		TransactionAppender
		CategoryAppender
		TransactionLister
		CategoryLister

		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		UpdateCategory(ctx context.Context, c core.Category) error
		// DeleteCategory moves the transactions referencing the category to
		// Uncategorized, then removes it.
		DeleteCategory(ctx context.Context, id string) error
		// Category resolves a reference; nil resolves to Uncategorized.
		Category(ctx context.Context, id *string) (core.Category, error)
	}

	// Persister is the key-value backend a store flushes its collections to.
	Persister interface {
		Load(ctx context.Context, key string) (value []byte, ok bool, err error)
		Save(ctx context.Context, key string, value []byte) error
	}
)
