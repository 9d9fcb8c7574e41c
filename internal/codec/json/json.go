// Package json implements the full-backup JSON format: both collections,
// pretty-printed, reconstructible by Parse.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"fintrack/internal/codec"
	"fintrack/internal/core"
)

const (
	msgParse         = "Error parsing JSON file: %v"
	msgFormat        = "Invalid JSON format"
	reasonTxFields   = "Missing required fields (type, amount, date)"
	reasonCatName    = "Missing required field (name)"
	reasonRecord     = "Invalid record"
	reasonAmount     = "Invalid amount"
	reasonDate       = "Invalid date format"
	reasonFieldValue = "Invalid value for %s"
)

// Backup is the document written by Marshal.
type Backup struct {
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
}

type options struct {
	strict bool
}

// Option configures Parse.
type Option func(*options)

// WithStrict makes transaction elements go through the same validation as
// CSV rows: amount must be positive, the date must parse (and is stored in
// canonical form) and the type is normalized. The default keeps the
// permissive behaviour where both are passed through unchecked.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Marshal renders b as indented JSON. Nil collections are written as empty
// arrays.
func Marshal(b Backup) ([]byte, error) {
	if b.Transactions == nil {
		b.Transactions = []core.Transaction{}
	}
	if b.Categories == nil {
		b.Categories = []core.Category{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse reads r to completion and parses it with Unmarshal.
func Parse(r io.Reader, opts ...Option) (*codec.Result, error) {
	data, err := codec.ReadAll(r, 0)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, opts...)
}

// Unmarshal parses a backup document into drafts. Any id present on input
// elements is discarded.
func Unmarshal(data []byte, opts ...Option) (*codec.Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, codec.NewFileError(err, msgParse, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, codec.NewFileError(nil, msgFormat)
	}

	res := &codec.Result{}
	if items, ok := obj["transactions"].([]any); ok {
		for i, item := range items {
			draft, reason := decodeTransaction(item, o.strict)
			if reason != "" {
				res.AddTransactionError(i+1, reason)
				continue
			}
			res.Transactions = append(res.Transactions, draft)
		}
	}
	if items, ok := obj["categories"].([]any); ok {
		for i, item := range items {
			draft, reason := decodeCategory(item)
			if reason != "" {
				res.AddCategoryError(i+1, reason)
				continue
			}
			res.Categories = append(res.Categories, draft)
		}
	}
	return res, nil
}

func decodeTransaction(item any, strict bool) (core.TransactionDraft, string) {
	m, ok := item.(map[string]any)
	if !ok {
		return core.TransactionDraft{}, reasonRecord
	}
	if !truthy(m["type"]) || !truthy(m["amount"]) || !truthy(m["date"]) {
		return core.TransactionDraft{}, reasonTxFields
	}

	var d core.TransactionDraft
	fields := []struct {
		name string
		dst  *string
	}{
		{"date", &d.Date},
		{"currency", &d.Currency},
		{"note", &d.Note},
		{"receipt", &d.Receipt},
	}
	for _, f := range fields {
		s, ok := scalarString(m[f.name])
		if !ok {
			return core.TransactionDraft{}, fieldReason(f.name)
		}
		*f.dst = s
	}

	typ, ok := scalarString(m["type"])
	if !ok {
		return core.TransactionDraft{}, fieldReason("type")
	}
	d.Type = core.TransactionType(typ)

	cat, ok := scalarString(m["categoryId"])
	if !ok {
		return core.TransactionDraft{}, fieldReason("categoryId")
	}
	d.CategoryID = core.NullableString(cat)

	// Amounts that cannot become a finite number cannot be stored or
	// exported again, so they are rejected even in permissive mode.
	d.Amount = toNumber(m["amount"])
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return core.TransactionDraft{}, reasonAmount
	}

	if strict {
		if !core.ValidAmount(d.Amount) {
			return core.TransactionDraft{}, reasonAmount
		}
		date, err := core.CanonicalDate(d.Date)
		if err != nil {
			return core.TransactionDraft{}, reasonDate
		}
		d.Date = date
		d.Type = core.ParseTransactionType(typ)
	}
	return d.Normalize(), ""
}

func decodeCategory(item any) (core.CategoryDraft, string) {
	m, ok := item.(map[string]any)
	if !ok {
		return core.CategoryDraft{}, reasonRecord
	}
	if !truthy(m["name"]) {
		return core.CategoryDraft{}, reasonCatName
	}

	var d core.CategoryDraft
	var parent string
	fields := []struct {
		name string
		dst  *string
	}{
		{"name", &d.Name},
		{"color", &d.Color},
		{"icon", &d.Icon},
		{"parentId", &parent},
	}
	for _, f := range fields {
		s, ok := scalarString(m[f.name])
		if !ok {
			return core.CategoryDraft{}, fieldReason(f.name)
		}
		*f.dst = s
	}
	d.ParentID = core.NullableString(parent)
	return d.Normalize(), ""
}

func fieldReason(field string) string {
	return fmt.Sprintf(reasonFieldValue, field)
}

// truthy mirrors the loose presence check used for required fields: null,
// false, 0, NaN and "" count as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// scalarString converts a present scalar to its string form. Falsy values
// become "" so the record defaults apply. Objects and arrays are rejected.
func scalarString(v any) (string, bool) {
	if !truthy(v) {
		return "", true
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// toNumber coerces a decoded JSON value to a number. Values with no numeric
// reading become NaN.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case nil:
		return 0
	default:
		return math.NaN()
	}
}
