package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", query: "", wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "explicit values", query: "skip=20&limit=50", wantOffset: 20, wantLimit: 50},
		{name: "limit capped", query: "limit=9999", wantOffset: 0, wantLimit: MaxPageSize},
		{name: "negative skip ignored", query: "skip=-5", wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "zero limit ignored", query: "limit=0", wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "garbage ignored", query: "skip=abc&limit=xyz", wantOffset: 0, wantLimit: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/api/v1/clients/?"+tt.query, nil)
			offset, limit := pagination(r)
			if offset != tt.wantOffset || limit != tt.wantLimit {
				t.Errorf("pagination() = (%d, %d), want (%d, %d)", offset, limit, tt.wantOffset, tt.wantLimit)
			}
		})
	}
}

func TestQueryDate(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/api/v1/invoices/?from=2025-04-01", nil)
	got, err := queryDate(r, "from")
	if err != nil {
		t.Fatalf("queryDate() error = %v", err)
	}
	want := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("queryDate() = %v, want %v", got, want)
	}

	r = httptest.NewRequest("GET", "/api/v1/invoices/", nil)
	got, err = queryDate(r, "from")
	if err != nil || got != nil {
		t.Errorf("queryDate() absent = (%v, %v), want (nil, nil)", got, err)
	}

	r = httptest.NewRequest("GET", "/api/v1/invoices/?from=01-04-2025", nil)
	if _, err := queryDate(r, "from"); err == nil {
		t.Error("queryDate() accepted malformed date")
	}
}

func TestQueryUUID(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/api/v1/invoices/?client_id=4f9c7a61-0a9b-4d6b-8d2e-0cf0a4b6d111", nil)
	got, err := queryUUID(r, "client_id")
	if err != nil || got == nil {
		t.Fatalf("queryUUID() = (%v, %v)", got, err)
	}
	if got.String() != "4f9c7a61-0a9b-4d6b-8d2e-0cf0a4b6d111" {
		t.Errorf("queryUUID() = %s", got)
	}

	r = httptest.NewRequest("GET", "/api/v1/invoices/", nil)
	got, err = queryUUID(r, "client_id")
	if err != nil || got != nil {
		t.Errorf("queryUUID() absent = (%v, %v), want (nil, nil)", got, err)
	}

	r = httptest.NewRequest("GET", "/api/v1/invoices/?client_id=not-a-uuid", nil)
	if _, err := queryUUID(r, "client_id"); err == nil {
		t.Error("queryUUID() accepted malformed UUID")
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	if got := sanitizeErrorMessage("Client not found"); got != "Client not found" {
		t.Errorf("sanitizeErrorMessage() = %q", got)
	}
	long := strings.Repeat("x", 250)
	got := sanitizeErrorMessage(long)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("sanitizeErrorMessage() length = %d", len(got))
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pqErr := &pq.Error{Code: "23505", Constraint: "invoices_invoice_number_key"}
	if !isUniqueViolation(pqErr) {
		t.Error("isUniqueViolation() = false for 23505")
	}
	if !isUniqueViolation(fmt.Errorf("insert invoice: %w", pqErr)) {
		t.Error("isUniqueViolation() = false for wrapped 23505")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("isUniqueViolation() = true for foreign key violation")
	}
	if isUniqueViolation(errors.New("duplicate")) {
		t.Error("isUniqueViolation() = true for plain error")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(sql.ErrNoRows) {
		t.Error("isNotFound() = false for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("get client: %w", sql.ErrNoRows)) {
		t.Error("isNotFound() = false for wrapped sql.ErrNoRows")
	}
	// The repository Delete methods report zero affected rows with these
	// errors; each must map to a 404, not a 500.
	for _, msg := range []string{"invoice not found", "client not found", "user not found", "document not found"} {
		if !isNotFound(fmt.Errorf("%s: %w", msg, sql.ErrNoRows)) {
			t.Errorf("isNotFound() = false for %q delete error", msg)
		}
	}
	if isNotFound(errors.New("gone")) {
		t.Error("isNotFound() = true for plain error")
	}
}
