package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/auth"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/request"
	"github.com/ledgerly/compliance-api/internal/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	tokens *auth.TokenService
	users  *database.UserRepository
	audit  *database.AuditLogRepository
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *auth.TokenService, users *database.UserRepository, audit *database.AuditLogRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users, audit: audit, logger: logger}
}

// RegisterRoutes registers auth routes on the given router.
// The router should already have the /api/v1/auth prefix; routes except /me
// are reachable without a bearer token.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/login-json", h.LoginJSON).Methods("POST")
	r.HandleFunc("/register", h.Register).Methods("POST")
}

// RegisterProtectedRoutes registers auth routes that require a bearer token
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// Login authenticates a form-encoded username/password pair
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid form data", err.Error())
		return
	}

	h.authenticate(w, r, r.PostFormValue("username"), r.PostFormValue("password"))
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginJSON authenticates a JSON username/password pair
func (h *AuthHandler) LoginJSON(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	h.authenticate(w, r, req.Username, req.Password)
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, username, password string) {
	username = validation.SanitizeText(username)
	if username == "" || password == "" {
		respondJSONError(w, http.StatusBadRequest, "Missing credentials", "username and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			// Same response as a bad password so usernames cannot be probed
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Incorrect username or password")
			return
		}
		h.logger.Error("login_user_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch user")
		return
	}

	if !auth.VerifyPassword(password, user.HashedPassword) {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Incorrect username or password")
		return
	}

	if !user.CanLogin() {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Account is disabled")
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.logger.Error("token_issue_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal error", "Failed to issue token")
		return
	}

	if err := h.users.TouchLastLogin(ctx, user.ID); err != nil {
		h.logger.Warn("last_login_update_failed",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
	}

	h.logger.Info("user_logged_in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	respondJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates a self-service account. New accounts start with the
// client role in pending status until an admin promotes them.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	req.Username = validation.SanitizeText(req.Username)
	req.FullName = validation.SanitizeText(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.users.GetByUsername(ctx, req.Username); err == nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "Username already registered")
		return
	}
	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid password", err.Error())
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hash,
		Role:           models.RoleClient,
		Status:         models.UserStatusPending,
	}
	if req.Phone != "" {
		phone := validation.SanitizeText(req.Phone)
		user.Phone = &phone
	}

	if err := h.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Username or email already registered")
			return
		}
		h.logger.Error("user_registration_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create user")
		return
	}

	ip := request.ClientIP(r)
	if err := h.audit.Record(ctx, &models.AuditLog{
		UserID:     user.ID,
		Action:     "register",
		Resource:   "users",
		ResourceID: &user.ID,
		IPAddress:  &ip,
	}); err != nil {
		h.logger.Warn("audit_record_failed", zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, user)
}

// GetMe returns the authenticated user
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
