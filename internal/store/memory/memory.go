// Package memory provides the in-process Store. Without a persister it is
// volatile; with one it loads both collections at Open and writes the
// affected collection back on every mutation.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu   sync.Mutex
	p    store.Persister
	cats []core.Category
	txs  []core.Transaction
}

// New returns a volatile store seeded with cats, or the default categories
// when cats is empty.
func New(cats []core.Category) *Store {
	if len(cats) == 0 {
		cats = core.DefaultCategories()
	}
	return &Store{cats: ensureUncategorized(slices.Clone(cats))}
}

// Open loads the collections from p. Missing keys start from the defaults.
func Open(ctx context.Context, p store.Persister) (*Store, error) {
	s := &Store{p: p}

	var cats []core.Category
	found, err := load(ctx, p, store.KeyCategories, &cats)
	if err != nil {
		return nil, err
	}
	if !found {
		cats = core.DefaultCategories()
	}
	s.cats = ensureUncategorized(cats)

	if _, err := load(ctx, p, store.KeyTransactions, &s.txs); err != nil {
		return nil, err
	}
	return s, nil
}

func load(ctx context.Context, p store.Persister, key string, dst any) (bool, error) {
	raw, ok, err := p.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func ensureUncategorized(cats []core.Category) []core.Category {
	if _, ok := core.FindCategory(cats, nil); ok {
		return cats
	}
	return append([]core.Category{core.Uncategorized()}, cats...)
}

// flush persists v under key. Callers hold s.mu and only assign the new
// collection once flush has succeeded.
func (s *Store) flush(ctx context.Context, key string, v any) error {
	if s.p == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.p.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) setTransactions(ctx context.Context, txs []core.Transaction) error {
	if err := s.flush(ctx, store.KeyTransactions, txs); err != nil {
		return err
	}
	s.txs = txs
	return nil
}

func (s *Store) setCategories(ctx context.Context, cats []core.Category) error {
	if err := s.flush(ctx, store.KeyCategories, cats); err != nil {
		return err
	}
	s.cats = cats
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTransactions(ctx, append(slices.Clone(s.txs), tx))
}

// AppendTransactions appends txs with a single flush.
func (s *Store) AppendTransactions(ctx context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTransactions(ctx, append(slices.Clone(s.txs), txs...))
}

func (s *Store) AppendCategory(ctx context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCategories(ctx, append(slices.Clone(s.cats), c))
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.txs), nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cats), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.txs, func(t core.Transaction) bool { return t.ID == tx.ID })
	if i < 0 {
		return fmt.Errorf("transaction %q: %w", tx.ID, store.ErrNotFound)
	}
	next := slices.Clone(s.txs)
	next[i] = tx
	return s.setTransactions(ctx, next)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.txs, func(t core.Transaction) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("transaction %q: %w", id, store.ErrNotFound)
	}
	return s.setTransactions(ctx, slices.Delete(slices.Clone(s.txs), i, i+1))
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cats, func(x core.Category) bool { return x.ID == c.ID })
	if i < 0 {
		return fmt.Errorf("category %q: %w", c.ID, store.ErrNotFound)
	}
	next := slices.Clone(s.cats)
	next[i] = c
	return s.setCategories(ctx, next)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if id == core.UncategorizedID {
		return store.ErrProtectedCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cats, func(x core.Category) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("category %q: %w", id, store.ErrNotFound)
	}

	txs := slices.Clone(s.txs)
	moved := 0
	for j, t := range txs {
		if t.CategoryID != nil && *t.CategoryID == id {
			txs[j].CategoryID = core.NullableString(core.UncategorizedID)
			moved++
		}
	}
	if moved > 0 {
		if err := s.setTransactions(ctx, txs); err != nil {
			return err
		}
	}
	return s.setCategories(ctx, slices.Delete(slices.Clone(s.cats), i, i+1))
}

func (s *Store) Category(_ context.Context, id *string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := core.FindCategory(s.cats, id); ok {
		return c, nil
	}
	return core.Category{}, fmt.Errorf("category %q: %w", core.StringValue(id), store.ErrNotFound)
}

var _ store.Store = (*Store)(nil)
