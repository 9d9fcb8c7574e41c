package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseTransactionType(t *testing.T) {
	cases := map[string]TransactionType{
		"income":  Income,
		"expense": Expense,
		"foo":     Expense,
		"":        Expense,
		"Income":  Expense,
	}
	for in, want := range cases {
		if got := ParseTransactionType(in); got != want {
			t.Fatalf("ParseTransactionType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTransactionDraftValidate(t *testing.T) {
	good := TransactionDraft{Type: Expense, Amount: 12.5, Currency: "USD", Date: "2024-01-15T00:00:00.000Z"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		d    TransactionDraft
		want error
	}{
		{TransactionDraft{Type: "foo", Amount: 1, Date: "2024-01-15"}, ErrInvalidType},
		{TransactionDraft{Type: Income, Amount: 0, Date: "2024-01-15"}, ErrInvalidAmount},
		{TransactionDraft{Type: Income, Amount: -5, Date: "2024-01-15"}, ErrInvalidAmount},
		{TransactionDraft{Type: Income, Amount: math.NaN(), Date: "2024-01-15"}, ErrInvalidAmount},
		{TransactionDraft{Type: Income, Amount: math.Inf(1), Date: "2024-01-15"}, ErrInvalidAmount},
		{TransactionDraft{Type: Income, Amount: 1, Date: "not-a-date"}, ErrInvalidDate},
	}
	for i, tc := range cases {
		if err := tc.d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	empty := ""
	d := TransactionDraft{CategoryID: &empty}.Normalize()
	if d.Currency != DefaultCurrency || d.CategoryID != nil {
		t.Fatalf("unexpected transaction defaults: %+v", d)
	}

	c := CategoryDraft{Name: "Food", ParentID: &empty}.Normalize()
	if c.Color != DefaultColor || c.Icon != DefaultIcon || c.ParentID != nil {
		t.Fatalf("unexpected category defaults: %+v", c)
	}
}

func TestCategoryDraftValidate(t *testing.T) {
	if err := (CategoryDraft{Name: "Food"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (CategoryDraft{Name: "  "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestFindCategory(t *testing.T) {
	cats := DefaultCategories()

	got, ok := FindCategory(cats, nil)
	if !ok || got.ID != UncategorizedID {
		t.Fatalf("nil reference should resolve to uncategorized, got %+v ok=%v", got, ok)
	}
	got, ok = FindCategory(cats, NullableString("2"))
	if !ok || got.Name != "Transport" {
		t.Fatalf("unexpected lookup: %+v ok=%v", got, ok)
	}
	if _, ok := FindCategory(cats, NullableString("missing")); ok {
		t.Fatalf("expected missing category to be unresolved")
	}
}

func TestHasCategoryNamed(t *testing.T) {
	cats := []Category{{ID: "a", CategoryDraft: CategoryDraft{Name: "food"}}}
	if !HasCategoryNamed(cats, "Food") || !HasCategoryNamed(cats, "FOOD") {
		t.Fatalf("expected case-insensitive match")
	}
	if HasCategoryNamed(cats, "Fuel") {
		t.Fatalf("unexpected match")
	}
}

func TestResolveIcon(t *testing.T) {
	if ResolveIcon("Car") != IconCar {
		t.Fatalf("expected IconCar")
	}
	if got := ResolveIcon("DoesNotExist"); got != IconUnknown {
		t.Fatalf("expected fallback glyph, got %v", got)
	}
	if IconUnknown.String() != "HelpCircle" || Icon(999).String() != "HelpCircle" {
		t.Fatalf("unknown icons must render the fallback glyph")
	}
	for _, icon := range Icons() {
		if ResolveIcon(icon.String()) != icon {
			t.Fatalf("icon %v does not round-trip through its name", icon)
		}
	}
	c := Category{CategoryDraft: CategoryDraft{Icon: "Plane"}}
	if c.Glyph() != IconPlane {
		t.Fatalf("unexpected glyph %v", c.Glyph())
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15T00:00:00.000Z"},
		{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00.000Z"},
		{"2024-01-15T10:30:00.250Z", "2024-01-15T10:30:00.250Z"},
		{"2024-01-15T12:00:00+02:00", "2024-01-15T10:00:00.000Z"},
		{" 2024-01-15 ", "2024-01-15T00:00:00.000Z"},
		{"3/31/2014", "2014-03-31T00:00:00.000Z"},
		{"May 8, 2009 5:57:51 PM", "2009-05-08T17:57:51.000Z"},
	}
	for _, tc := range cases {
		got, err := CanonicalDate(tc.in)
		if err != nil {
			t.Fatalf("CanonicalDate(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("CanonicalDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	rejected := []string{
		"",
		"not-a-date",
		"3/",
		"12:",
		"1:1:1:1",
		"2024-01-15 extra",
		"3/5/2014",
	}
	for _, bad := range rejected {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", bad, err)
		}
	}
}
