package services

import (
	"strings"
	"testing"
)

func TestImportReportMessage(t *testing.T) {
	tests := []struct {
		name    string
		report  ImportReport
		limit   int
		want    []string
		notWant []string
	}{
		{
			name:    "clean",
			report:  ImportReport{TransactionsImported: 3},
			limit:   5,
			want:    []string{"Successfully imported 3 transactions."},
			notWant: []string{"could not be imported", "categories"},
		},
		{
			name:   "categories and skips",
			report: ImportReport{TransactionsImported: 1, CategoriesImported: 2, CategoriesSkipped: 1, UnresolvedCategoryRefs: 1},
			limit:  5,
			want: []string{
				"Successfully imported 1 transactions and 2 categories.",
				"Skipped 1 categories that already exist.",
				"1 transactions were moved to Uncategorized.",
			},
		},
		{
			name: "truncated errors",
			report: ImportReport{Errors: []string{
				"Row 2: Invalid amount", "Row 3: Invalid amount", "Row 4: Invalid date format",
			}},
			limit:   2,
			want:    []string{"3 records could not be imported:\nRow 2: Invalid amount\nRow 3: Invalid amount\n..."},
			notWant: []string{"Row 4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.report.Message(tt.limit)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Message() = %q, want it to contain %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Message() = %q, must not contain %q", got, w)
				}
			}
		})
	}
}
