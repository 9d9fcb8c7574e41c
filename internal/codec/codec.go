// Package codec holds the result and error types shared by the CSV and JSON
// import codecs.
package codec

import (
	"errors"
	"fmt"
	"io"
	"math"

	"fintrack/internal/core"
)

// Record kinds used as the prefix of row-level error messages.
const (
	KindRow         = "Row"
	KindTransaction = "Transaction"
	KindCategory    = "Category"
)

// FileError aborts a whole import: the file is unreadable, not valid for the
// chosen format, or lacks the mandatory header. No record is accepted.
type FileError struct {
	Msg string
	Err error
}

func (e *FileError) Error() string {
	return e.Msg
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError builds a FileError with a formatted message.
func NewFileError(err error, format string, args ...any) *FileError {
	return &FileError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsFileError reports whether err is (or wraps) a FileError.
func IsFileError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe)
}

// RowError describes why one input record was dropped.
type RowError struct {
	Kind   string
	Index  int // 1-based position as reported to the user
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Kind, e.Index, e.Reason)
}

// Result is the outcome of parsing one file: accepted drafts in input order
// plus the row errors for everything that was dropped.
type Result struct {
	Transactions []core.TransactionDraft
	Categories   []core.CategoryDraft
	Errors       []RowError
}

// Messages renders the row errors as user-facing strings.
func (r *Result) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

func (r *Result) addError(kind string, index int, reason string) {
	r.Errors = append(r.Errors, RowError{Kind: kind, Index: index, Reason: reason})
}

// AddRowError records a dropped CSV row.
func (r *Result) AddRowError(index int, reason string) {
	r.addError(KindRow, index, reason)
}

// AddTransactionError records a dropped JSON transaction element.
func (r *Result) AddTransactionError(index int, reason string) {
	r.addError(KindTransaction, index, reason)
}

// AddCategoryError records a dropped JSON category element.
func (r *Result) AddCategoryError(index int, reason string) {
	r.addError(KindCategory, index, reason)
}

// ReadAll reads r to completion. A positive limit caps the accepted size.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 && limit < math.MaxInt64 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewFileError(err, "Error reading file: %v", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, NewFileError(nil, "File exceeds the maximum import size of %d bytes", limit)
	}
	return data, nil
}

// Preview truncates msgs to the first limit entries, appending "..." when
// more remain. A non-positive limit keeps everything.
func Preview(msgs []string, limit int) []string {
	if limit <= 0 || len(msgs) <= limit {
		return append([]string(nil), msgs...)
	}
	out := append([]string(nil), msgs[:limit]...)
	return append(out, "...")
}
