package services

import (
	"fmt"
	"strings"

	"fintrack/internal/codec"
)

// DefaultErrorPreview is how many row errors Message lists before
// truncating.
const DefaultErrorPreview = 5

// ImportReport summarizes one import run. UnresolvedCategoryRefs counts
// transactions whose categoryId matched no category and were filed under
// Uncategorized.
type ImportReport struct {
	TransactionsImported   int      `json:"transactionsImported"`
	CategoriesImported     int      `json:"categoriesImported"`
	CategoriesSkipped      int      `json:"categoriesSkipped"`
	UnresolvedCategoryRefs int      `json:"unresolvedCategoryRefs"`
	Errors                 []string `json:"errors"`
}

// Message renders the report for the user: the tallies followed by at most
// previewLimit row errors.
func (r ImportReport) Message(previewLimit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully imported %d transactions", r.TransactionsImported)
	if r.CategoriesImported > 0 {
		fmt.Fprintf(&b, " and %d categories", r.CategoriesImported)
	}
	b.WriteString(".")
	if r.CategoriesSkipped > 0 {
		fmt.Fprintf(&b, " Skipped %d categories that already exist.", r.CategoriesSkipped)
	}
	if r.UnresolvedCategoryRefs > 0 {
		fmt.Fprintf(&b, " %d transactions were moved to Uncategorized.", r.UnresolvedCategoryRefs)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n\n%d records could not be imported:\n", len(r.Errors))
		b.WriteString(strings.Join(codec.Preview(r.Errors, previewLimit), "\n"))
	}
	return b.String()
}
