package core

import (
	"errors"
	"math"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// UncategorizedID is the reserved id of the category that always exists.
	UncategorizedID = "uncategorized"

	DefaultCurrency = "USD"
	DefaultColor    = "#64748b"
	DefaultIcon     = "Shapes"
)

type (
	TransactionType string

	// TransactionDraft is a transaction that has not been assigned an id yet.
	TransactionDraft struct {
		Type       TransactionType `json:"type"`
		Amount     float64         `json:"amount"`
		Currency   string          `json:"currency"`
		CategoryID *string         `json:"categoryId"` // nil means Uncategorized
		Date       string          `json:"date"`       // ISO-8601, see FormatISO
		Note       string          `json:"note"`
		Receipt    string          `json:"receipt,omitempty"` // base64 data URL
	}

	Transaction struct {
		ID string `json:"id"`
		TransactionDraft
	}

	// CategoryDraft is a category that has not been assigned an id yet.
	CategoryDraft struct {
		Name     string  `json:"name"`
		Color    string  `json:"color"`
		Icon     string  `json:"icon"`
		ParentID *string `json:"parentId"`
	}

	Category struct {
		ID string `json:"id"`
		CategoryDraft
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date format")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyName     = errors.New("empty category name")
)

// ParseTransactionType maps the literal "income" to Income and anything else
// to Expense.
func ParseTransactionType(s string) TransactionType {
	if s == string(Income) {
		return Income
	}
	return Expense
}

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NullableString returns nil for the empty string and a pointer to s otherwise.
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ValidAmount reports whether a is a finite number greater than zero.
func ValidAmount(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// WithID returns the accepted transaction for this draft.
func (d TransactionDraft) WithID(id string) Transaction {
	return Transaction{ID: id, TransactionDraft: d}
}

// Normalize applies the defaults of the record model to empty fields.
func (d TransactionDraft) Normalize() TransactionDraft {
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	if d.CategoryID != nil && *d.CategoryID == "" {
		d.CategoryID = nil
	}
	return d
}

func (d TransactionDraft) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if !ValidAmount(d.Amount) {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(d.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// WithID returns the accepted category for this draft.
func (d CategoryDraft) WithID(id string) Category {
	return Category{ID: id, CategoryDraft: d}
}

// Normalize applies the defaults of the record model to empty fields.
func (d CategoryDraft) Normalize() CategoryDraft {
	if d.Color == "" {
		d.Color = DefaultColor
	}
	if d.Icon == "" {
		d.Icon = DefaultIcon
	}
	if d.ParentID != nil && *d.ParentID == "" {
		d.ParentID = nil
	}
	return d
}

func (d CategoryDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Glyph resolves the category icon name, falling back to IconUnknown.
func (c Category) Glyph() Icon {
	return ResolveIcon(c.Icon)
}

// Uncategorized returns the sentinel category.
func Uncategorized() Category {
	return CategoryDraft{Name: "Uncategorized", Color: DefaultColor, Icon: DefaultIcon}.WithID(UncategorizedID)
}

// DefaultCategories is the category set of a fresh store.
func DefaultCategories() []Category {
	return []Category{
		Uncategorized(),
		{ID: "1", CategoryDraft: CategoryDraft{Name: "Groceries", Color: "#3b82f6", Icon: "ShoppingCart"}},
		{ID: "2", CategoryDraft: CategoryDraft{Name: "Transport", Color: "#ef4444", Icon: "Car"}},
		{ID: "3", CategoryDraft: CategoryDraft{Name: "Entertainment", Color: "#eab308", Icon: "Ticket"}},
		{ID: "4", CategoryDraft: CategoryDraft{Name: "Salary", Color: "#22c55e", Icon: "Landmark"}},
	}
}

// FindCategory looks up a category by reference. A nil reference resolves to
// the Uncategorized sentinel.
func FindCategory(cats []Category, id *string) (Category, bool) {
	want := UncategorizedID
	if id != nil {
		want = *id
	}
	for _, c := range cats {
		if c.ID == want {
			return c, true
		}
	}
	return Category{}, false
}

// HasCategoryNamed reports whether cats contains a category whose name equals
// name under case-insensitive comparison.
func HasCategoryNamed(cats []Category, name string) bool {
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
