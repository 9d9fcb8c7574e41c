package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func newParser(body, contentType string) *RequestBodyParser {
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), r)
}

func TestRequestBodyParserTransactionDraft(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantAmount  float64
		wantType    core.TransactionType
		wantCat     string
		wantErr     bool
	}{
		{
			name:        "json",
			body:        `{"type":"expense","amount":12.5,"categoryId":"1","date":"2024-01-15","note":" lunch "}`,
			contentType: "application/json",
			wantAmount:  12.5,
			wantType:    core.Expense,
			wantCat:     "1",
		},
		{
			name:        "json string amount and null category",
			body:        `{"type":"income","amount":"100","categoryId":null,"date":"2024-01-15"}`,
			contentType: "application/json",
			wantAmount:  100,
			wantType:    core.Income,
		},
		{
			name:        "form",
			body:        "type=income&amount=42&date=2024-02-01",
			contentType: "application/x-www-form-urlencoded",
			wantAmount:  42,
			wantType:    core.Income,
		},
		{name: "missing amount", body: `{"type":"expense"}`, wantErr: true},
		{name: "non numeric amount", body: "amount=abc", wantErr: true},
		{name: "malformed json", body: `{"amount":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := newParser(tt.body, tt.contentType).TransactionDraft()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", d)
				}
				return
			}
			if err != nil {
				t.Fatalf("TransactionDraft: %v", err)
			}
			if d.Amount != tt.wantAmount || d.Type != tt.wantType || core.StringValue(d.CategoryID) != tt.wantCat {
				t.Errorf("unexpected draft: %+v", d)
			}
		})
	}
}

func TestRequestBodyParserSanitizes(t *testing.T) {
	p := newParser(`{"note":"  hi\u0000there\n ","name":"Food"}`, "application/json")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.IsJSON() {
		t.Error("expected JSON body")
	}
	if got := p.Get("note"); got != "hithere" {
		t.Errorf("Get(note) = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q", got)
	}
}

func TestRequestBodyParserCategoryDraft(t *testing.T) {
	d, err := newParser("name=Rent&color=%23ff0000&parentId=", "application/x-www-form-urlencoded").CategoryDraft()
	if err != nil {
		t.Fatalf("CategoryDraft: %v", err)
	}
	if d.Name != "Rent" || d.Color != "#ff0000" || d.ParentID != nil {
		t.Errorf("unexpected draft: %+v", d)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"limit=3", 3},
		{"limit=0", 5},
		{"limit=-2", 5},
		{"limit=abc", 5},
		{"limit=1000", 100},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := parseLimit(q, "limit", 5, 100); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	q, _ := url.ParseQuery("category=1&q=%20lunch%20&from=2024-01-01&to=2024-01-31")
	f := parseFilter(q)
	if f.CategoryID != "1" || f.Query != "lunch" || f.From != "2024-01-01" || f.To != "2024-01-31" {
		t.Errorf("unexpected filter: %+v", f)
	}
}
