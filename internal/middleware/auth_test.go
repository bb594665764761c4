package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/auth"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/request"
)

type fakeUserRepo struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService("test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tokens := newTestTokenService(t)
	activeToken, err := tokens.Issue("priya")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	suspendedToken, err := tokens.Issue("ravi")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	ghostToken, err := tokens.Issue("nobody")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	repo := &fakeUserRepo{users: map[string]*models.User{
		"priya": {ID: uuid.New(), Username: "priya", Role: models.RoleAccountant, Status: models.UserStatusActive},
		"ravi":  {ID: uuid.New(), Username: "ravi", Role: models.RoleClient, Status: models.UserStatusSuspended},
	}}

	var sawUser *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser = request.UserFromContext(r)
		w.WriteHeader(http.StatusOK)
	})
	wrapped := Auth(tokens, repo, zap.NewNop())(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + activeToken, wantStatus: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer " + activeToken, wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", authHeader: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer garbage", wantStatus: http.StatusUnauthorized},
		{name: "unknown subject", authHeader: "Bearer " + ghostToken, wantStatus: http.StatusUnauthorized},
		{name: "suspended account", authHeader: "Bearer " + suspendedToken, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sawUser = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if sawUser == nil || sawUser.Username != "priya" {
					t.Errorf("user in context = %+v, want priya", sawUser)
				}
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequireRoles(zap.NewNop(), models.RoleAdmin, models.RoleManager)(next)

	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, Status: models.UserStatusActive}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req = req.WithContext(request.WithUser(req.Context(), admin))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want %d", rec.Code, http.StatusOK)
	}

	client := &models.User{ID: uuid.New(), Role: models.RoleClient, Status: models.UserStatusActive}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req = req.WithContext(request.WithUser(req.Context(), client))
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("client status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
