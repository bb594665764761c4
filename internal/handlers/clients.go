package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/validation"
)

// ClientsHandler handles client record requests
type ClientsHandler struct {
	clients  *database.ClientRepository
	projects *database.ProjectRepository
	invoices *database.InvoiceRepository
	logger   *zap.Logger
}

// NewClientsHandler creates a new clients handler
func NewClientsHandler(clients *database.ClientRepository, projects *database.ProjectRepository, invoices *database.InvoiceRepository, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{clients: clients, projects: projects, invoices: invoices, logger: logger}
}

// RegisterRoutes registers client routes on the given router.
// The router should already have the /api/v1/clients prefix and auth middleware.
func (h *ClientsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.List).Methods("GET")
	r.HandleFunc("/", h.Create).Methods("POST")
	r.HandleFunc("/{id}", h.Get).Methods("GET")
	r.HandleFunc("/{id}", h.Update).Methods("PUT")
	r.HandleFunc("/{id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/{id}/projects", h.ListProjects).Methods("GET")
	r.HandleFunc("/{id}/invoices", h.ListInvoices).Methods("GET")
}

// List returns clients, optionally filtered by a search term over
// name, email, phone and GSTIN
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	search := validation.SanitizeText(r.URL.Query().Get("search"))

	clients, err := h.clients.List(r.Context(), search, offset, limit)
	if err != nil {
		h.logger.Error("client_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list clients")
		return
	}

	respondJSON(w, http.StatusOK, clients)
}

// Get returns one client by ID
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "client ID must be a UUID")
		return
	}

	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("client_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch client")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

type clientRequest struct {
	Name           string     `json:"name" validate:"required,max=255"`
	Email          *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	GSTIN          *string    `json:"gstin,omitempty" validate:"omitempty,gstin"`
	PAN            *string    `json:"pan,omitempty" validate:"omitempty,pan"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
	Pincode        *string    `json:"pincode,omitempty" validate:"omitempty,max=10"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
}

// Create adds a client. GSTIN must be unique across clients.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	normalizeClientRequest(&req)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if req.GSTIN != nil {
		if _, err := h.clients.GetByGSTIN(ctx, *req.GSTIN); err == nil {
			respondJSONError(w, http.StatusConflict, "Conflict", "A client with this GSTIN already exists")
			return
		}
	}

	client := &models.Client{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		GSTIN:          req.GSTIN,
		PAN:            req.PAN,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Pincode:        req.Pincode,
		AssignedUserID: req.AssignedUserID,
		Status:         models.ClientStatusActive,
	}

	if err := h.clients.Create(ctx, client); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A client with this GSTIN already exists")
			return
		}
		h.logger.Error("client_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create client")
		return
	}

	respondJSON(w, http.StatusCreated, client)
}

// Update replaces the mutable fields of a client
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "client ID must be a UUID")
		return
	}

	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	normalizeClientRequest(&req)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	client, err := h.clients.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("client_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch client")
		return
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.GSTIN = req.GSTIN
	client.PAN = req.PAN
	client.Address = req.Address
	client.City = req.City
	client.State = req.State
	client.Pincode = req.Pincode
	client.AssignedUserID = req.AssignedUserID

	if err := h.clients.Update(ctx, client); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A client with this GSTIN already exists")
			return
		}
		h.logger.Error("client_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to update client")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Delete removes a client
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "client ID must be a UUID")
		return
	}

	if err := h.clients.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("client_delete_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to delete client")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}

// ListProjects returns the client's projects
func (h *ClientsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "client ID must be a UUID")
		return
	}

	projects, err := h.projects.ListByClient(r.Context(), id)
	if err != nil {
		h.logger.Error("client_projects_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// ListInvoices returns the client's invoices
func (h *ClientsHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "client ID must be a UUID")
		return
	}

	invoices, err := h.invoices.ListByClient(r.Context(), id)
	if err != nil {
		h.logger.Error("client_invoices_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list invoices")
		return
	}

	respondJSON(w, http.StatusOK, invoices)
}

func normalizeClientRequest(req *clientRequest) {
	req.Name = validation.SanitizeText(req.Name)
	if req.GSTIN != nil {
		gstin := strings.ToUpper(strings.TrimSpace(*req.GSTIN))
		req.GSTIN = &gstin
	}
	if req.PAN != nil {
		pan := strings.ToUpper(strings.TrimSpace(*req.PAN))
		req.PAN = &pan
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
}
