package middleware

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/auth"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/request"
)

// Auth creates authentication middleware that validates bearer tokens and
// loads the token subject's user record into the request context
func Auth(tokens *auth.TokenService, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				logger.Warn("token_verification_failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			ctx := r.Context()
			user, err := users.GetByUsername(ctx, claims.Sub)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
					return
				}
				logger.Error("user_lookup_failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				respondAuthError(w, http.StatusInternalServerError, "Database error", logger)
				return
			}

			if !user.CanLogin() {
				respondAuthError(w, http.StatusForbidden, "Account is disabled", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

// RequireRoles creates middleware that rejects context users outside the given roles.
// Must run after Auth.
func RequireRoles(logger *zap.Logger, roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !request.RequireRole(r, roles...) {
				respondAuthError(w, http.StatusForbidden, "Insufficient permissions", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondAuthError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_auth_error_response", zap.Error(err))
	}
}
