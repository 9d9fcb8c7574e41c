package json

import (
	"strings"
	"testing"

	"fintrack/internal/codec"
	"fintrack/internal/core"
)

func mustUnmarshal(t *testing.T, text string, opts ...Option) *codec.Result {
	t.Helper()
	res, err := Unmarshal([]byte(text), opts...)
	if err != nil {
		t.Fatalf("unexpected file error: %v", err)
	}
	return res
}

func TestMarshalEmpty(t *testing.T) {
	out, err := Marshal(Backup{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "{\n  \"transactions\": [],\n  \"categories\": []\n}"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRoundTrip(t *testing.T) {
	b := Backup{
		Transactions: []core.Transaction{
			core.TransactionDraft{Type: core.Expense, Amount: 12.5, Currency: "EUR", CategoryID: core.NullableString("1"), Date: "2024-01-15T00:00:00.000Z", Note: "<lunch> & co"}.WithID("a"),
			core.TransactionDraft{Type: core.Income, Amount: 1000, Currency: "USD", Date: "2024-01-31T00:00:00.000Z", Receipt: "data:image/png;base64,AAAA"}.WithID("b"),
		},
		Categories: []core.Category{
			core.CategoryDraft{Name: "Pets", Color: "#ff0000", Icon: "Heart"}.WithID("7"),
			core.CategoryDraft{Name: "Vet", Color: "#00ff00", Icon: "Home", ParentID: core.NullableString("7")}.WithID("8"),
		},
	}
	out, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), "<lunch> & co") {
		t.Fatalf("HTML characters must not be escaped: %s", out)
	}

	res := mustUnmarshal(t, string(out))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Messages())
	}
	if len(res.Transactions) != 2 || len(res.Categories) != 2 {
		t.Fatalf("unexpected counts: %d transactions, %d categories", len(res.Transactions), len(res.Categories))
	}
	for i, want := range b.Transactions {
		got := res.Transactions[i]
		if got.Type != want.Type || got.Amount != want.Amount || got.Currency != want.Currency ||
			core.StringValue(got.CategoryID) != core.StringValue(want.CategoryID) ||
			got.Date != want.Date || got.Note != want.Note || got.Receipt != want.Receipt {
			t.Fatalf("transaction %d mismatch: got %+v, want %+v", i, got, want.TransactionDraft)
		}
	}
	for i, want := range b.Categories {
		got := res.Categories[i]
		if got.Name != want.Name || got.Color != want.Color || got.Icon != want.Icon ||
			core.StringValue(got.ParentID) != core.StringValue(want.ParentID) {
			t.Fatalf("category %d mismatch: got %+v, want %+v", i, got, want.CategoryDraft)
		}
	}
}

func TestUnmarshalFileErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"malformed", "{not json", "Error parsing JSON file: "},
		{"array", "[1, 2]", "Invalid JSON format"},
		{"string", `"hello"`, "Invalid JSON format"},
		{"null", "null", "Invalid JSON format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Unmarshal([]byte(tc.text))
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			if !codec.IsFileError(err) {
				t.Fatalf("expected a file error, got %T", err)
			}
			if !strings.HasPrefix(err.Error(), tc.want) {
				t.Fatalf("got %q, want prefix %q", err.Error(), tc.want)
			}
		})
	}
}

func TestUnmarshalRowIsolation(t *testing.T) {
	text := `{
		"transactions": [
			{"id": "old", "type": "expense", "amount": 5, "date": "2024-01-01"},
			{"type": "expense", "date": "2024-01-02"},
			"garbage",
			{"type": "income", "amount": "42.5", "date": "2024-01-03", "categoryId": "4"},
			{"type": "", "amount": 1, "date": "2024-01-04"}
		],
		"categories": [
			{"id": "9", "name": "Pets"},
			{"color": "#fff"}
		]
	}`
	res := mustUnmarshal(t, text)

	want := []string{
		"Transaction 2: Missing required fields (type, amount, date)",
		"Transaction 3: Invalid record",
		"Transaction 5: Missing required fields (type, amount, date)",
		"Category 2: Missing required field (name)",
	}
	got := res.Messages()
	if len(got) != len(want) {
		t.Fatalf("got errors %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("error %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(res.Transactions))
	}
	first := res.Transactions[0]
	if first.Currency != core.DefaultCurrency || first.CategoryID != nil || first.Note != "" || first.Receipt != "" {
		t.Fatalf("defaults not applied: %+v", first)
	}
	second := res.Transactions[1]
	if second.Amount != 42.5 || core.StringValue(second.CategoryID) != "4" {
		t.Fatalf("coercion failed: %+v", second)
	}

	if len(res.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(res.Categories))
	}
	cat := res.Categories[0]
	if cat.Name != "Pets" || cat.Color != core.DefaultColor || cat.Icon != core.DefaultIcon || cat.ParentID != nil {
		t.Fatalf("category defaults not applied: %+v", cat)
	}
}

func TestUnmarshalPermissiveByDefault(t *testing.T) {
	text := `{"transactions": [
		{"type": "transfer", "amount": -3, "date": "someday"},
		{"type": "expense", "amount": "abc", "date": "2024-01-01"}
	]}`
	res := mustUnmarshal(t, text)
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d (%v)", len(res.Transactions), res.Messages())
	}
	got := res.Transactions[0]
	if got.Type != "transfer" || got.Amount != -3 || got.Date != "someday" {
		t.Fatalf("permissive import must pass values through: %+v", got)
	}
	if msgs := res.Messages(); len(msgs) != 1 || msgs[0] != "Transaction 2: Invalid amount" {
		t.Fatalf("unexpected errors: %v", msgs)
	}
}

func TestUnmarshalStrict(t *testing.T) {
	text := `{"transactions": [
		{"type": "expense", "amount": -3, "date": "2024-01-01"},
		{"type": "expense", "amount": 3, "date": "not-a-date"},
		{"type": "Income", "amount": 7, "date": "2024-03-05"}
	]}`
	res := mustUnmarshal(t, text, WithStrict(true))
	want := []string{
		"Transaction 1: Invalid amount",
		"Transaction 2: Invalid date format",
	}
	got := res.Messages()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got errors %v, want %v", got, want)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(res.Transactions))
	}
	tx := res.Transactions[0]
	if tx.Type != core.Expense {
		t.Fatalf("non-literal type should normalize to expense, got %q", tx.Type)
	}
	if tx.Date != "2024-03-05T00:00:00.000Z" {
		t.Fatalf("date not canonicalized: %q", tx.Date)
	}
}

func TestUnmarshalIgnoresNonArrayCollections(t *testing.T) {
	res := mustUnmarshal(t, `{"transactions": {"a": 1}, "categories": "none", "extra": true}`)
	if len(res.Transactions) != 0 || len(res.Categories) != 0 || len(res.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestUnmarshalRejectsStructuredFieldValues(t *testing.T) {
	res := mustUnmarshal(t, `{"transactions": [{"type": "expense", "amount": 1, "date": "2024-01-01", "note": {"x": 1}}]}`)
	if msgs := res.Messages(); len(msgs) != 1 || msgs[0] != "Transaction 1: Invalid value for note" {
		t.Fatalf("unexpected errors: %v", msgs)
	}
}
