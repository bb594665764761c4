package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckBasic(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(nil, nil, nil, "1.0.0")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", body.Status)
	}
	if body.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", body.Version)
	}
	if body.Timestamp == "" {
		t.Error("Timestamp empty")
	}
	if body.Checks != nil {
		t.Errorf("Checks = %v, want nil without extended mode", body.Checks)
	}
}
