// Package http provides the JSON API over the ledger and transfer services.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxRecordBodyBytes bounds the body of a single-record request. Receipts
// are embedded as data URLs, hence the generous limit.
const maxRecordBodyBytes int64 = 8 << 20

var errMissingAmount = errors.New("amount is required")

// RequestBodyParser handles JSON and form-encoded record payloads.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once, up to maxRecordBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBodyBytes))
	return p
}

// Parse decodes the body as a JSON object or, failing the leading brace, as
// form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("malformed JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionDraft builds a draft from the parsed fields. Type is taken
// verbatim so that unknown values fail validation instead of defaulting.
func (p *RequestBodyParser) TransactionDraft() (core.TransactionDraft, error) {
	if err := p.Parse(); err != nil {
		return core.TransactionDraft{}, err
	}

	raw := p.Get("amount")
	if raw == "" {
		return core.TransactionDraft{}, errMissingAmount
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return core.TransactionDraft{}, core.ErrInvalidAmount
	}

	return core.TransactionDraft{
		Type:       core.TransactionType(p.Get("type")),
		Amount:     amount,
		Currency:   p.Get("currency"),
		CategoryID: core.NullableString(p.Get("categoryId")),
		Date:       p.Get("date"),
		Note:       p.Get("note"),
		Receipt:    p.Get("receipt"),
	}, nil
}

func (p *RequestBodyParser) CategoryDraft() (core.CategoryDraft, error) {
	if err := p.Parse(); err != nil {
		return core.CategoryDraft{}, err
	}
	return core.CategoryDraft{
		Name:     p.Get("name"),
		Color:    p.Get("color"),
		Icon:     p.Get("icon"),
		ParentID: core.NullableString(p.Get("parentId")),
	}, nil
}

// stringValue converts a decoded JSON value to string. Null and structured
// values yield "".
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput strips control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseFilter reads the transaction list filter from the query string.
func parseFilter(q url.Values) core.Filter {
	return core.Filter{
		CategoryID: sanitizeInput(q.Get("category")),
		Query:      sanitizeInput(q.Get("q")),
		From:       sanitizeInput(q.Get("from")),
		To:         sanitizeInput(q.Get("to")),
	}
}

// parseLimit reads a positive integer query value, returning def when the
// value is missing or invalid and capping it at max.
func parseLimit(q url.Values, key string, def, max int) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
