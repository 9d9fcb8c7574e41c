// Package csv implements the transaction CSV export format and its importer.
//
// The format has no quoting: values are joined with commas as-is, so a comma
// or newline inside a note or receipt corrupts the row on both export and
// import. This is the documented behaviour of the format, not an oversight.
package csv

import (
	"io"
	"math"
	"strconv"
	"strings"

	"fintrack/internal/codec"
	"fintrack/internal/core"
)

// Header is the column order written by Marshal.
var Header = []string{"id", "type", "amount", "currency", "categoryId", "date", "note", "receipt"}

// Columns that must appear (as a case-insensitive substring) in the header.
var requiredColumns = []string{"type", "amount", "date"}

const (
	msgTooShort       = "CSV file must contain a header row and at least one data row"
	msgMissingColumns = "CSV file is missing required columns: %s"
	reasonColumns     = "Invalid number of columns"
	reasonAmount      = "Invalid amount"
	reasonDate        = "Invalid date format"
)

// Records returns the header followed by one record per transaction. It
// returns nil for an empty collection.
func Records(txs []core.Transaction) [][]string {
	if len(txs) == 0 {
		return nil
	}
	out := make([][]string, 0, len(txs)+1)
	out = append(out, append([]string(nil), Header...))
	for _, t := range txs {
		out = append(out, []string{
			t.ID,
			string(t.Type),
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			t.Currency,
			core.StringValue(t.CategoryID),
			t.Date,
			t.Note,
			t.Receipt,
		})
	}
	return out
}

// Marshal renders txs as CSV text. An empty collection produces no output.
func Marshal(txs []core.Transaction) []byte {
	records := Records(txs)
	if records == nil {
		return nil
	}
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = strings.Join(rec, ",")
	}
	return []byte(strings.Join(lines, "\n"))
}

// Parse reads r to completion and parses it with Unmarshal.
func Parse(r io.Reader) (*codec.Result, error) {
	data, err := codec.ReadAll(r, 0)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Unmarshal parses CSV text into transaction drafts. Whole-file problems are
// returned as a *codec.FileError; malformed rows are dropped and reported in
// the result.
func Unmarshal(data []byte) (*codec.Result, error) {
	lines := nonEmptyLines(string(data))
	if len(lines) < 2 {
		return nil, codec.NewFileError(nil, msgTooShort)
	}

	header := strings.Split(lines[0], ",")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, codec.NewFileError(nil, msgMissingColumns, strings.Join(missing, ", "))
	}
	cols := resolveColumns(header)

	res := &codec.Result{}
	for i, line := range lines[1:] {
		rowNum := i + 2
		values := strings.Split(line, ",")
		if len(values) != len(header) {
			res.AddRowError(rowNum, reasonColumns)
			continue
		}

		draft, reason := decodeRow(cols, values)
		if reason != "" {
			res.AddRowError(rowNum, reason)
			continue
		}
		res.Transactions = append(res.Transactions, draft)
	}
	return res, nil
}

// columns maps a canonical field name to its position in the header.
type columns map[string]int

func (c columns) get(values []string, field string) string {
	if i, ok := c[field]; ok {
		return values[i]
	}
	return ""
}

// coerced returns a value that is parsed rather than passed through, with
// surrounding blanks removed. Free text fields keep their spacing.
func (c columns) coerced(values []string, field string) string {
	return strings.TrimSpace(c.get(values, field))
}

func decodeRow(cols columns, values []string) (core.TransactionDraft, string) {
	amount, err := strconv.ParseFloat(cols.coerced(values, "amount"), 64)
	if err != nil {
		amount = math.NaN()
	}
	if !core.ValidAmount(amount) {
		return core.TransactionDraft{}, reasonAmount
	}

	date, err := core.CanonicalDate(cols.coerced(values, "date"))
	if err != nil {
		return core.TransactionDraft{}, reasonDate
	}

	draft := core.TransactionDraft{
		Type:       core.ParseTransactionType(cols.coerced(values, "type")),
		Amount:     amount,
		Currency:   cols.get(values, "currency"),
		CategoryID: core.NullableString(cols.get(values, "categoryId")),
		Date:       date,
		Note:       cols.get(values, "note"),
		Receipt:    cols.get(values, "receipt"),
	}
	return draft.Normalize(), ""
}

// resolveColumns binds canonical fields to header positions. Exact
// case-insensitive matches win; required fields fall back to the first
// header containing their name.
func resolveColumns(header []string) columns {
	cols := columns{}
	for _, field := range Header {
		for i, h := range header {
			if strings.EqualFold(h, field) {
				cols[field] = i
				break
			}
		}
	}
	for _, field := range requiredColumns {
		if _, ok := cols[field]; ok {
			continue
		}
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), field) {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func missingColumns(header []string) []string {
	var missing []string
	for _, field := range requiredColumns {
		found := false
		for _, h := range header {
			if strings.Contains(strings.ToLower(h), field) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field)
		}
	}
	return missing
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
