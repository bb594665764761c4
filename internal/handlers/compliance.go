package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/request"
	"github.com/ledgerly/compliance-api/internal/validation"
)

// ComplianceHandler handles projects, tasks, compliance items,
// tax returns and time entries
type ComplianceHandler struct {
	projects    *database.ProjectRepository
	tasks       *database.TaskRepository
	compliances *database.ComplianceRepository
	returns     *database.ReturnRepository
	timeEntries *database.TimeEntryRepository
	clients     *database.ClientRepository
	logger      *zap.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(projects *database.ProjectRepository, tasks *database.TaskRepository, compliances *database.ComplianceRepository, returns *database.ReturnRepository, timeEntries *database.TimeEntryRepository, clients *database.ClientRepository, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		projects:    projects,
		tasks:       tasks,
		compliances: compliances,
		returns:     returns,
		timeEntries: timeEntries,
		clients:     clients,
		logger:      logger,
	}
}

// RegisterRoutes registers compliance-domain routes on the given
// router. The router should already have the /api/v1 prefix and auth
// middleware.
func (h *ComplianceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/projects/", h.ListProjects).Methods("GET")
	r.HandleFunc("/projects/", h.CreateProject).Methods("POST")
	r.HandleFunc("/projects/{id}", h.GetProject).Methods("GET")
	r.HandleFunc("/tasks/", h.ListTasks).Methods("GET")
	r.HandleFunc("/tasks/", h.CreateTask).Methods("POST")
	r.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/compliance/", h.ListCompliances).Methods("GET")
	r.HandleFunc("/compliance/", h.CreateCompliance).Methods("POST")
	r.HandleFunc("/compliance/{id}", h.GetCompliance).Methods("GET")
	r.HandleFunc("/gst-returns/", h.ListGSTReturns).Methods("GET")
	r.HandleFunc("/tds-returns/", h.ListTDSReturns).Methods("GET")
	r.HandleFunc("/time-entries/", h.ListTimeEntries).Methods("GET")
	r.HandleFunc("/time-entries/", h.CreateTimeEntry).Methods("POST")
	r.HandleFunc("/time-entries/{id}/stop", h.StopTimeEntry).Methods("POST")
}

// ListProjects returns projects filtered by client and status
func (h *ComplianceHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	clientID, err := queryUUID(r, "client_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "client_id must be a UUID")
		return
	}

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		v := validation.SanitizeText(s)
		status = &v
	}

	projects, err := h.projects.List(r.Context(), clientID, status, offset, limit)
	if err != nil {
		h.logger.Error("project_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// GetProject returns one project by ID
func (h *ComplianceHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "project ID must be a UUID")
		return
	}

	project, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Project not found")
			return
		}
		h.logger.Error("project_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

type projectRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description *string    `json:"description,omitempty"`
	ClientID    uuid.UUID  `json:"client_id" validate:"required"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,max=50"`
	Budget      *float64   `json:"budget,omitempty" validate:"omitempty,gte=0"`
}

// CreateProject creates a project for an existing client
func (h *ComplianceHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.clients.GetByID(ctx, req.ClientID); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("project_client_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch client")
		return
	}

	status := "active"
	if req.Status != nil {
		status = validation.SanitizeText(*req.Status)
	}

	project := &models.Project{
		ID:          uuid.New(),
		Name:        validation.SanitizeText(req.Name),
		Description: req.Description,
		ClientID:    req.ClientID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		Budget:      req.Budget,
	}

	if err := h.projects.Create(ctx, project); err != nil {
		h.logger.Error("project_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create project")
		return
	}

	h.logger.Info("project_created",
		zap.String("project_id", project.ID.String()),
		zap.String("client_id", project.ClientID.String()))

	respondJSON(w, http.StatusCreated, project)
}

// ListTasks returns tasks filtered by project, assignee and status
func (h *ComplianceHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "project_id must be a UUID")
		return
	}
	assignedTo, err := queryUUID(r, "assigned_to")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "assigned_to must be a UUID")
		return
	}

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		v := validation.SanitizeText(s)
		status = &v
	}

	tasks, err := h.tasks.List(r.Context(), projectID, assignedTo, status, offset, limit)
	if err != nil {
		h.logger.Error("task_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// GetTask returns one task by ID
func (h *ComplianceHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "task ID must be a UUID")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Task not found")
			return
		}
		h.logger.Error("task_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

type taskRequest struct {
	Title          string     `json:"title" validate:"required,max=255"`
	Description    *string    `json:"description,omitempty"`
	ProjectID      *uuid.UUID `json:"project_id,omitempty"`
	AssignedTo     *uuid.UUID `json:"assigned_to,omitempty"`
	Priority       *string    `json:"priority,omitempty" validate:"omitempty,task_priority"`
	Status         *string    `json:"status,omitempty" validate:"omitempty,max=50"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	ActualHours    *float64   `json:"actual_hours,omitempty" validate:"omitempty,gte=0"`
}

// CreateTask creates a task, optionally under a project
func (h *ComplianceHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if req.ProjectID != nil {
		if _, err := h.projects.GetByID(ctx, *req.ProjectID); err != nil {
			if isNotFound(err) {
				respondJSONError(w, http.StatusNotFound, "Not found", "Project not found")
				return
			}
			h.logger.Error("task_project_lookup_failed", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch project")
			return
		}
	}

	priority := models.TaskPriorityMedium
	if req.Priority != nil {
		priority = models.TaskPriority(*req.Priority)
	}
	status := "pending"
	if req.Status != nil {
		status = validation.SanitizeText(*req.Status)
	}

	task := &models.Task{
		ID:             uuid.New(),
		Title:          validation.SanitizeText(req.Title),
		Description:    req.Description,
		ProjectID:      req.ProjectID,
		AssignedTo:     req.AssignedTo,
		Priority:       priority,
		Status:         status,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}

	if err := h.tasks.Create(ctx, task); err != nil {
		h.logger.Error("task_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask updates task fields. Setting status to completed stamps
// completed_at; moving it away clears the stamp.
func (h *ComplianceHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "task ID must be a UUID")
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Task not found")
			return
		}
		h.logger.Error("task_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch task")
		return
	}

	if req.Title != "" {
		task.Title = validation.SanitizeText(req.Title)
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	if req.Priority != nil {
		if !models.ValidTaskPriority(*req.Priority) {
			respondJSONError(w, http.StatusBadRequest, "Validation failed", "unknown task priority")
			return
		}
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		task.ActualHours = req.ActualHours
	}
	if req.Status != nil {
		status := validation.SanitizeText(*req.Status)
		if status == "completed" && task.Status != "completed" {
			now := time.Now()
			task.CompletedAt = &now
		}
		if status != "completed" {
			task.CompletedAt = nil
		}
		task.Status = status
	}

	if err := h.tasks.Update(ctx, task); err != nil {
		h.logger.Error("task_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// complianceFilters parses the shared client/type/status query filters
func complianceFilters(r *http.Request) (*uuid.UUID, *models.ComplianceType, *models.ComplianceStatus, string) {
	clientID, err := queryUUID(r, "client_id")
	if err != nil {
		return nil, nil, nil, "client_id must be a UUID"
	}

	var complianceType *models.ComplianceType
	if t := r.URL.Query().Get("compliance_type"); t != "" {
		if !models.ValidComplianceType(t) {
			return nil, nil, nil, "unknown compliance type"
		}
		v := models.ComplianceType(t)
		complianceType = &v
	}

	var status *models.ComplianceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if !models.ValidComplianceStatus(s) {
			return nil, nil, nil, "unknown compliance status"
		}
		v := models.ComplianceStatus(s)
		status = &v
	}

	return clientID, complianceType, status, ""
}

// ListCompliances returns compliance items filtered by client, type
// and status
func (h *ComplianceHandler) ListCompliances(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	clientID, complianceType, status, filterErr := complianceFilters(r)
	if filterErr != "" {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", filterErr)
		return
	}

	items, err := h.compliances.List(r.Context(), clientID, complianceType, status, offset, limit)
	if err != nil {
		h.logger.Error("compliance_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list compliance items")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// GetCompliance returns one compliance item by ID
func (h *ComplianceHandler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "compliance ID must be a UUID")
		return
	}

	item, err := h.compliances.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Compliance item not found")
			return
		}
		h.logger.Error("compliance_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch compliance item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

type complianceRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Type        string     `json:"type" validate:"required,compliance_type"`
	ClientID    uuid.UUID  `json:"client_id" validate:"required"`
	DueDate     time.Time  `json:"due_date" validate:"required"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,compliance_status"`
	Description *string    `json:"description,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// CreateCompliance creates a compliance item for an existing client
func (h *ComplianceHandler) CreateCompliance(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.clients.GetByID(ctx, req.ClientID); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("compliance_client_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch client")
		return
	}

	status := models.ComplianceStatusPending
	if req.Status != nil {
		status = models.ComplianceStatus(*req.Status)
	}

	item := &models.Compliance{
		ID:          uuid.New(),
		Name:        validation.SanitizeText(req.Name),
		Type:        models.ComplianceType(req.Type),
		ClientID:    req.ClientID,
		DueDate:     req.DueDate,
		Status:      status,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Notes:       req.Notes,
	}

	if err := h.compliances.Create(ctx, item); err != nil {
		h.logger.Error("compliance_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create compliance item")
		return
	}

	h.logger.Info("compliance_created",
		zap.String("compliance_id", item.ID.String()),
		zap.String("client_id", item.ClientID.String()),
		zap.String("type", string(item.Type)))

	respondJSON(w, http.StatusCreated, item)
}

// ListGSTReturns returns GST returns filtered by client and status
func (h *ComplianceHandler) ListGSTReturns(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	clientID, _, status, filterErr := complianceFilters(r)
	if filterErr != "" {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", filterErr)
		return
	}

	returns, err := h.returns.ListGSTReturns(r.Context(), clientID, status, offset, limit)
	if err != nil {
		h.logger.Error("gst_return_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list GST returns")
		return
	}

	respondJSON(w, http.StatusOK, returns)
}

// ListTDSReturns returns TDS returns filtered by client and status
func (h *ComplianceHandler) ListTDSReturns(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	clientID, _, status, filterErr := complianceFilters(r)
	if filterErr != "" {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", filterErr)
		return
	}

	returns, err := h.returns.ListTDSReturns(r.Context(), clientID, status, offset, limit)
	if err != nil {
		h.logger.Error("tds_return_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list TDS returns")
		return
	}

	respondJSON(w, http.StatusOK, returns)
}

// ListTimeEntries returns time entries. Non-admin users only see
// their own entries.
func (h *ComplianceHandler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	projectID, err := queryUUID(r, "project_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "project_id must be a UUID")
		return
	}
	clientID, err := queryUUID(r, "client_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "client_id must be a UUID")
		return
	}

	var userID *uuid.UUID
	actor := request.UserFromContext(r)
	if actor != nil && actor.Role != models.RoleAdmin {
		userID = &actor.ID
	} else {
		userID, err = queryUUID(r, "user_id")
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Invalid filter", "user_id must be a UUID")
			return
		}
	}

	entries, err := h.timeEntries.List(r.Context(), userID, projectID, clientID, offset, limit)
	if err != nil {
		h.logger.Error("time_entry_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list time entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

type timeEntryRequest struct {
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsBillable  bool       `json:"is_billable"`
	HourlyRate  *float64   `json:"hourly_rate,omitempty" validate:"omitempty,gte=0"`
}

// CreateTimeEntry starts a time entry for the current user. The start
// time defaults to now when omitted.
func (h *ComplianceHandler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	actor := request.UserFromContext(r)
	if actor == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	var req timeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	start := time.Now()
	if req.StartTime != nil {
		start = *req.StartTime
	}

	entry := &models.TimeEntry{
		ID:          uuid.New(),
		UserID:      actor.ID,
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		ClientID:    req.ClientID,
		StartTime:   start,
		Description: req.Description,
		IsBillable:  req.IsBillable,
		HourlyRate:  req.HourlyRate,
	}

	if err := h.timeEntries.Create(r.Context(), entry); err != nil {
		h.logger.Error("time_entry_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create time entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// StopTimeEntry ends a running time entry and computes its duration
func (h *ComplianceHandler) StopTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "time entry ID must be a UUID")
		return
	}

	ctx := r.Context()
	existing, err := h.timeEntries.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Time entry not found")
			return
		}
		h.logger.Error("time_entry_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch time entry")
		return
	}

	actor := request.UserFromContext(r)
	if actor != nil && actor.Role != models.RoleAdmin && existing.UserID != actor.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Cannot stop another user's time entry")
		return
	}

	entry, err := h.timeEntries.Stop(ctx, id, time.Now())
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Time entry is not running")
			return
		}
		h.logger.Error("time_entry_stop_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to stop time entry")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
