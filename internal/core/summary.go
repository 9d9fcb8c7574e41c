package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Summary holds the income/expense totals of a set of transactions.
type Summary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// CategoryAmount is one slice of the expense breakdown.
type CategoryAmount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Filter narrows a transaction listing. Zero fields match everything.
type Filter struct {
	CategoryID string // "" or "all" for every category
	Query      string // case-insensitive substring of the note
	From       string // inclusive YYYY-MM-DD
	To         string // inclusive YYYY-MM-DD
}

// Summarize folds transactions into income, expense and balance totals.
// Anything that is not income counts as expense.
func Summarize(txs []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		amount := decimal.NewFromFloat(t.Amount)
		if t.Type == Income {
			income = income.Add(amount)
		} else {
			expense = expense.Add(amount)
		}
	}
	return Summary{
		Income:  income.InexactFloat64(),
		Expense: expense.InexactFloat64(),
		Balance: income.Sub(expense).InexactFloat64(),
	}
}

// BreakdownByCategory sums expense amounts per resolved category. References
// that are nil or unresolved fall back to Uncategorized. Output order is the
// order in which each category is first encountered.
func BreakdownByCategory(txs []Transaction, cats []Category) []CategoryAmount {
	fallback, hasFallback := FindCategory(cats, nil)

	var (
		order []string
		names = map[string]Category{}
		sums  = map[string]decimal.Decimal{}
	)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		cat, ok := FindCategory(cats, t.CategoryID)
		if !ok {
			if !hasFallback {
				continue
			}
			cat = fallback
		}
		if _, seen := sums[cat.ID]; !seen {
			order = append(order, cat.ID)
			names[cat.ID] = cat
			sums[cat.ID] = decimal.Zero
		}
		sums[cat.ID] = sums[cat.ID].Add(decimal.NewFromFloat(t.Amount))
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, id := range order {
		out = append(out, CategoryAmount{
			Name:  names[id].Name,
			Value: sums[id].InexactFloat64(),
			Color: names[id].Color,
		})
	}
	return out
}

// RecentTransactions returns up to n transactions, newest first.
func RecentTransactions(txs []Transaction, n int) []Transaction {
	sorted := sortByDateDesc(txs)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterTransactions applies f and returns the matches, newest first.
func FilterTransactions(txs []Transaction, f Filter) []Transaction {
	query := strings.ToLower(f.Query)
	var out []Transaction
	for _, t := range txs {
		day := DatePart(t.Date)
		if f.From != "" && day < f.From {
			continue
		}
		if f.To != "" && day > f.To {
			continue
		}
		if f.CategoryID != "" && f.CategoryID != "all" && StringValue(t.CategoryID) != f.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Note), query) {
			continue
		}
		out = append(out, t)
	}
	return sortByDateDesc(out)
}

// sortByDateDesc returns a copy of txs ordered newest first. Unparseable
// dates sort last.
func sortByDateDesc(txs []Transaction) []Transaction {
	type keyed struct {
		t  Transaction
		ms int64
		ok bool
	}
	ks := make([]keyed, len(txs))
	for i, t := range txs {
		ks[i].t = t
		if ts, err := ParseDate(t.Date); err == nil {
			ks[i].ms, ks[i].ok = ts.UnixMilli(), true
		}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].ms > ks[j].ms
	})
	out := make([]Transaction, len(ks))
	for i, k := range ks {
		out[i] = k.t
	}
	return out
}
