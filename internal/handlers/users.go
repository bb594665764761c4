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

// UsersHandler handles user management requests
type UsersHandler struct {
	users  *database.UserRepository
	audit  *database.AuditLogRepository
	logger *zap.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(users *database.UserRepository, audit *database.AuditLogRepository, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, audit: audit, logger: logger}
}

// RegisterRoutes registers user routes on the given router.
// The router should already have the /api/v1/users prefix and auth middleware.
func (h *UsersHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/permissions/", h.ListPermissions).Methods("GET")
	r.HandleFunc("/permissions/", h.CreatePermission).Methods("POST")
	r.HandleFunc("/role-permissions/", h.ListRolePermissions).Methods("GET")
	r.HandleFunc("/role-permissions/", h.CreateRolePermission).Methods("POST")
	r.HandleFunc("/", h.List).Methods("GET")
	r.HandleFunc("/", h.Create).Methods("POST")
	r.HandleFunc("/{id}", h.Get).Methods("GET")
	r.HandleFunc("/{id}", h.Update).Methods("PUT")
	r.HandleFunc("/{id}", h.Delete).Methods("DELETE")
}

// List returns users, paginated
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	users, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("user_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// Get returns one user by ID
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "user ID must be a UUID")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "User not found")
			return
		}
		h.logger.Error("user_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

type createUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required,min=3,max=64"`
	FullName   string `json:"full_name" validate:"required,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Role       string `json:"role" validate:"required,user_role"`
	Status     string `json:"status,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
}

// Create creates a user with an explicit role. Admin only.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := request.UserFromContext(r)
	if !request.RequireRole(r, models.RoleAdmin) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Only admins can create users")
		return
	}

	var req createUserRequest
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

	status := models.UserStatusActive
	if req.Status != "" {
		if !models.ValidUserStatus(req.Status) {
			respondJSONError(w, http.StatusBadRequest, "Validation failed", "invalid status")
			return
		}
		status = models.UserStatus(req.Status)
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
		Role:           models.UserRole(req.Role),
		Status:         status,
		CreatedBy:      &actor.ID,
	}
	if req.Phone != "" {
		phone := validation.SanitizeText(req.Phone)
		user.Phone = &phone
	}
	if req.Department != "" {
		dept := validation.SanitizeText(req.Department)
		user.Department = &dept
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Username or email already registered")
			return
		}
		h.logger.Error("user_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create user")
		return
	}

	h.recordAudit(r, actor.ID, "create", &user.ID)
	respondJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName   *string `json:"full_name,omitempty"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role       *string `json:"role,omitempty" validate:"omitempty,user_role"`
	Status     *string `json:"status,omitempty" validate:"omitempty,user_status"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
}

// Update applies a partial update. Admins may update anyone; other users may
// only update their own profile fields, not role or status.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := request.UserFromContext(r)
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "user ID must be a UUID")
		return
	}

	isAdmin := actor.Role == models.RoleAdmin
	if !isAdmin && actor.ID != id {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Cannot update another user")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	if !isAdmin && (req.Role != nil || req.Status != nil) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Cannot change role or status")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "User not found")
			return
		}
		h.logger.Error("user_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch user")
		return
	}

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FullName != nil {
		user.FullName = validation.SanitizeText(*req.FullName)
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Invalid password", err.Error())
			return
		}
		user.HashedPassword = hash
	}
	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}
	if req.Status != nil {
		user.Status = models.UserStatus(*req.Status)
	}
	if req.Phone != nil {
		phone := validation.SanitizeText(*req.Phone)
		user.Phone = &phone
	}
	if req.Department != nil {
		dept := validation.SanitizeText(*req.Department)
		user.Department = &dept
	}

	if err := h.users.Update(ctx, user); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Email already registered")
			return
		}
		h.logger.Error("user_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to update user")
		return
	}

	h.recordAudit(r, actor.ID, "update", &user.ID)
	respondJSON(w, http.StatusOK, user)
}

// Delete removes a user. Admin only.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := request.UserFromContext(r)
	if !request.RequireRole(r, models.RoleAdmin) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Only admins can delete users")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "user ID must be a UUID")
		return
	}
	if actor.ID == id {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", "Cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "User not found")
			return
		}
		h.logger.Error("user_delete_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to delete user")
		return
	}

	h.recordAudit(r, actor.ID, "delete", &id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ListPermissions returns all defined permissions
func (h *UsersHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.users.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("permission_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list permissions")
		return
	}

	respondJSON(w, http.StatusOK, permissions)
}

type createPermissionRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
	Resource    string  `json:"resource" validate:"required,max=100"`
	Action      string  `json:"action" validate:"required,max=50"`
}

// CreatePermission defines a new permission. Admin only.
func (h *UsersHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	if !request.RequireRole(r, models.RoleAdmin) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Only admins can create permissions")
		return
	}

	var req createPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	permission := &models.Permission{
		ID:          uuid.New(),
		Name:        validation.SanitizeText(req.Name),
		Description: req.Description,
		Resource:    validation.SanitizeText(req.Resource),
		Action:      validation.SanitizeText(req.Action),
	}

	if err := h.users.CreatePermission(r.Context(), permission); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Permission already exists")
			return
		}
		h.logger.Error("permission_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create permission")
		return
	}

	respondJSON(w, http.StatusCreated, permission)
}

// ListRolePermissions returns role-to-permission mappings
func (h *UsersHandler) ListRolePermissions(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.users.ListRolePermissions(r.Context())
	if err != nil {
		h.logger.Error("role_permission_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list role permissions")
		return
	}

	respondJSON(w, http.StatusOK, mappings)
}

type createRolePermissionRequest struct {
	Role         string    `json:"role" validate:"required,user_role"`
	PermissionID uuid.UUID `json:"permission_id" validate:"required"`
}

// CreateRolePermission grants a permission to a role. Admin only.
func (h *UsersHandler) CreateRolePermission(w http.ResponseWriter, r *http.Request) {
	if !request.RequireRole(r, models.RoleAdmin) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Only admins can grant permissions")
		return
	}

	var req createRolePermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	mapping := &models.RolePermission{
		ID:           uuid.New(),
		Role:         models.UserRole(req.Role),
		PermissionID: req.PermissionID,
	}

	if err := h.users.CreateRolePermission(r.Context(), mapping); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Role permission already exists")
			return
		}
		h.logger.Error("role_permission_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create role permission")
		return
	}

	respondJSON(w, http.StatusCreated, mapping)
}

func (h *UsersHandler) recordAudit(r *http.Request, actorID uuid.UUID, action string, resourceID *uuid.UUID) {
	ip := request.ClientIP(r)
	if err := h.audit.Record(r.Context(), &models.AuditLog{
		UserID:     actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: resourceID,
		IPAddress:  &ip,
	}); err != nil {
		h.logger.Warn("audit_record_failed", zap.Error(err))
	}
}
