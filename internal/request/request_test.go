package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ledgerly/compliance-api/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "priya", Role: models.RoleAccountant}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), user))

	got := UserFromContext(req)
	if got == nil {
		t.Fatal("UserFromContext() = nil")
	}
	if got.Username != "priya" {
		t.Errorf("Username = %q, want priya", got.Username)
	}
}

func TestUserFromContextMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if UserFromContext(req) != nil {
		t.Error("UserFromContext() on bare request should be nil")
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), admin))

	if !RequireRole(req, models.RoleAdmin) {
		t.Error("RequireRole(admin) = false for an admin user")
	}
	if !RequireRole(req, models.RoleManager, models.RoleAdmin) {
		t.Error("RequireRole should match any listed role")
	}
	if RequireRole(req, models.RoleClient) {
		t.Error("RequireRole(client) = true for an admin user")
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if RequireRole(bare, models.RoleAdmin) {
		t.Error("RequireRole = true without a user in context")
	}
}
