package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/validation"
)

// FinancialHandler handles invoices, payments, chart of accounts,
// general ledger and bank reconciliation requests
type FinancialHandler struct {
	invoices *database.InvoiceRepository
	payments *database.PaymentRepository
	accounts *database.AccountRepository
	clients  *database.ClientRepository
	logger   *zap.Logger
}

// NewFinancialHandler creates a new financial handler
func NewFinancialHandler(invoices *database.InvoiceRepository, payments *database.PaymentRepository, accounts *database.AccountRepository, clients *database.ClientRepository, logger *zap.Logger) *FinancialHandler {
	return &FinancialHandler{invoices: invoices, payments: payments, accounts: accounts, clients: clients, logger: logger}
}

// RegisterRoutes registers financial routes on the given router.
// The router should already have the /api/v1 prefix and auth middleware.
func (h *FinancialHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/invoices/", h.ListInvoices).Methods("GET")
	r.HandleFunc("/invoices/", h.CreateInvoice).Methods("POST")
	r.HandleFunc("/invoices/{id}", h.GetInvoice).Methods("GET")
	r.HandleFunc("/invoices/{id}", h.UpdateInvoice).Methods("PUT")
	r.HandleFunc("/invoices/{id}", h.DeleteInvoice).Methods("DELETE")
	r.HandleFunc("/payments/", h.ListPayments).Methods("GET")
	r.HandleFunc("/payments/", h.CreatePayment).Methods("POST")
	r.HandleFunc("/chart-of-accounts/", h.ListAccounts).Methods("GET")
	r.HandleFunc("/chart-of-accounts/", h.CreateAccount).Methods("POST")
	r.HandleFunc("/general-ledger/", h.ListLedgerEntries).Methods("GET")
	r.HandleFunc("/general-ledger/", h.CreateLedgerEntry).Methods("POST")
	r.HandleFunc("/bank-reconciliation/", h.ListReconciliations).Methods("GET")
	r.HandleFunc("/bank-reconciliation/", h.CreateReconciliation).Methods("POST")
}

type invoiceItemRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

type invoiceRequest struct {
	ClientID  uuid.UUID            `json:"client_id" validate:"required"`
	IssueDate time.Time            `json:"issue_date" validate:"required"`
	DueDate   time.Time            `json:"due_date" validate:"required"`
	Status    *string              `json:"status,omitempty"`
	Notes     *string              `json:"notes,omitempty"`
	Items     []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ListInvoices returns invoices, optionally filtered by client and status
func (h *FinancialHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	clientID, err := queryUUID(r, "client_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "client_id must be a UUID")
		return
	}

	var status *models.InvoiceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if !models.ValidInvoiceStatus(s) {
			respondJSONError(w, http.StatusBadRequest, "Invalid filter", "unknown invoice status")
			return
		}
		v := models.InvoiceStatus(s)
		status = &v
	}

	invoices, err := h.invoices.List(r.Context(), clientID, status, offset, limit)
	if err != nil {
		h.logger.Error("invoice_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list invoices")
		return
	}

	respondJSON(w, http.StatusOK, invoices)
}

// GetInvoice returns one invoice with its items
func (h *FinancialHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "invoice ID must be a UUID")
		return
	}

	invoice, err := h.invoices.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Invoice not found")
			return
		}
		h.logger.Error("invoice_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch invoice")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// CreateInvoice creates an invoice with its line items. The invoice
// number is generated server side and totals are derived from the items.
func (h *FinancialHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	status := models.InvoiceStatusDraft
	if req.Status != nil {
		if !models.ValidInvoiceStatus(*req.Status) {
			respondJSONError(w, http.StatusBadRequest, "Validation failed", "unknown invoice status")
			return
		}
		status = models.InvoiceStatus(*req.Status)
	}

	ctx := r.Context()
	if _, err := h.clients.GetByID(ctx, req.ClientID); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Client not found")
			return
		}
		h.logger.Error("invoice_client_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch client")
		return
	}

	number, err := h.invoices.NextInvoiceNumber(ctx)
	if err != nil {
		h.logger.Error("invoice_number_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to generate invoice number")
		return
	}

	invoice := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		ClientID:      req.ClientID,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		Status:        status,
		Notes:         req.Notes,
	}
	for _, item := range req.Items {
		invoice.Items = append(invoice.Items, &models.InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Description: validation.SanitizeText(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.Quantity * item.UnitPrice,
			TaxRate:     item.TaxRate,
		})
	}
	invoice.ComputeTotals()

	if err := h.invoices.Create(ctx, invoice); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Invoice number already exists")
			return
		}
		h.logger.Error("invoice_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create invoice")
		return
	}

	h.logger.Info("invoice_created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client_id", invoice.ClientID.String()))

	respondJSON(w, http.StatusCreated, invoice)
}

type invoiceUpdateRequest struct {
	IssueDate *time.Time `json:"issue_date,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// UpdateInvoice updates invoice dates, status and notes. Line items
// are immutable once the invoice exists.
func (h *FinancialHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "invoice ID must be a UUID")
		return
	}

	var req invoiceUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	invoice, err := h.invoices.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Invoice not found")
			return
		}
		h.logger.Error("invoice_get_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch invoice")
		return
	}

	if req.IssueDate != nil {
		invoice.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		invoice.DueDate = *req.DueDate
	}
	if req.Status != nil {
		if !models.ValidInvoiceStatus(*req.Status) {
			respondJSONError(w, http.StatusBadRequest, "Validation failed", "unknown invoice status")
			return
		}
		invoice.Status = models.InvoiceStatus(*req.Status)
	}
	if req.Notes != nil {
		invoice.Notes = req.Notes
	}

	if err := h.invoices.Update(ctx, invoice); err != nil {
		h.logger.Error("invoice_update_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to update invoice")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// DeleteInvoice removes an invoice and its items
func (h *FinancialHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid ID", "invoice ID must be a UUID")
		return
	}

	if err := h.invoices.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Invoice not found")
			return
		}
		h.logger.Error("invoice_delete_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to delete invoice")
		return
	}

	h.logger.Info("invoice_deleted", zap.String("invoice_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

// ListPayments returns payments, optionally filtered by invoice
func (h *FinancialHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	invoiceID, err := queryUUID(r, "invoice_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "invoice_id must be a UUID")
		return
	}

	payments, err := h.payments.List(r.Context(), invoiceID, offset, limit)
	if err != nil {
		h.logger.Error("payment_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list payments")
		return
	}

	respondJSON(w, http.StatusOK, payments)
}

type paymentRequest struct {
	InvoiceID     uuid.UUID `json:"invoice_id" validate:"required"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	PaymentDate   time.Time `json:"payment_date" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,max=50"`
	Reference     *string   `json:"reference,omitempty" validate:"omitempty,max=100"`
	Status        *string   `json:"status,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
}

// CreatePayment records a payment against an invoice. A completed
// payment re-derives the invoice status from the total paid so far.
func (h *FinancialHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	status := models.PaymentStatusCompleted
	if req.Status != nil {
		if !models.ValidPaymentStatus(*req.Status) {
			respondJSONError(w, http.StatusBadRequest, "Validation failed", "unknown payment status")
			return
		}
		status = models.PaymentStatus(*req.Status)
	}

	ctx := r.Context()
	invoice, err := h.invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Invoice not found")
			return
		}
		h.logger.Error("payment_invoice_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch invoice")
		return
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		InvoiceID:     req.InvoiceID,
		Amount:        req.Amount,
		PaymentDate:   req.PaymentDate,
		PaymentMethod: validation.SanitizeText(req.PaymentMethod),
		Reference:     req.Reference,
		Status:        status,
		Notes:         req.Notes,
	}

	if err := h.payments.Create(ctx, payment); err != nil {
		h.logger.Error("payment_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create payment")
		return
	}

	if status == models.PaymentStatusCompleted {
		h.rederiveInvoiceStatus(r, invoice)
	}

	h.logger.Info("payment_recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.Float64("amount", payment.Amount))

	respondJSON(w, http.StatusCreated, payment)
}

// rederiveInvoiceStatus recomputes the invoice status from completed
// payments. The payment itself is already committed, so failures here
// are logged and left for the next payment to correct.
func (h *FinancialHandler) rederiveInvoiceStatus(r *http.Request, invoice *models.Invoice) {
	ctx := r.Context()

	paid, err := h.payments.TotalCompletedForInvoice(ctx, invoice.ID)
	if err != nil {
		h.logger.Warn("invoice_paid_total_failed",
			zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
		return
	}

	next := models.DeriveInvoiceStatus(paid, invoice.TotalAmount, invoice.Status)
	if next == invoice.Status {
		return
	}

	invoice.Status = next
	if err := h.invoices.Update(ctx, invoice); err != nil {
		h.logger.Warn("invoice_status_update_failed",
			zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
	}
}

// ListAccounts returns the chart of accounts, optionally filtered by type
func (h *FinancialHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	var accountType *models.AccountType
	if t := r.URL.Query().Get("account_type"); t != "" {
		if !models.ValidAccountType(t) {
			respondJSONError(w, http.StatusBadRequest, "Invalid filter", "unknown account type")
			return
		}
		v := models.AccountType(t)
		accountType = &v
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), accountType, offset, limit)
	if err != nil {
		h.logger.Error("account_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list accounts")
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

type accountRequest struct {
	Code        string     `json:"code" validate:"required,max=20"`
	Name        string     `json:"name" validate:"required,max=255"`
	AccountType string     `json:"account_type" validate:"required,account_type"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// CreateAccount adds a chart-of-accounts entry. Codes are unique.
func (h *FinancialHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	account := &models.Account{
		ID:          uuid.New(),
		Code:        req.Code,
		Name:        validation.SanitizeText(req.Name),
		AccountType: models.AccountType(req.AccountType),
		ParentID:    req.ParentID,
		IsActive:    true,
	}

	if err := h.accounts.CreateAccount(r.Context(), account); err != nil {
		if isUniqueViolation(err) {
			respondJSONError(w, http.StatusConflict, "Conflict", "An account with this code already exists")
			return
		}
		h.logger.Error("account_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create account")
		return
	}

	h.logger.Info("account_created",
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code))

	respondJSON(w, http.StatusCreated, account)
}

// ListLedgerEntries returns general ledger lines filtered by account
// and date range
func (h *FinancialHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "account_id must be a UUID")
		return
	}

	start, err := queryDate(r, "start_date")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := queryDate(r, "end_date")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "end_date must be YYYY-MM-DD")
		return
	}

	entries, err := h.accounts.ListLedgerEntries(r.Context(), accountID, start, end, offset, limit)
	if err != nil {
		h.logger.Error("ledger_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list ledger entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

type ledgerEntryRequest struct {
	AccountID     uuid.UUID `json:"account_id" validate:"required"`
	TransactionID string    `json:"transaction_id" validate:"required,max=100"`
	Date          time.Time `json:"date" validate:"required"`
	Description   *string   `json:"description,omitempty"`
	DebitAmount   float64   `json:"debit_amount" validate:"gte=0"`
	CreditAmount  float64   `json:"credit_amount" validate:"gte=0"`
	Reference     *string   `json:"reference,omitempty" validate:"omitempty,max=100"`
}

// CreateLedgerEntry records a general ledger line. Exactly one of
// debit and credit must be non-zero. The running balance is the
// previous balance of the account plus debit minus credit.
func (h *FinancialHandler) CreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req ledgerEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	if (req.DebitAmount > 0) == (req.CreditAmount > 0) {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", "exactly one of debit_amount and credit_amount must be positive")
		return
	}

	ctx := r.Context()
	if _, err := h.accounts.GetAccountByID(ctx, req.AccountID); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Account not found")
			return
		}
		h.logger.Error("ledger_account_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch account")
		return
	}

	entry := &models.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		TransactionID: validation.SanitizeText(req.TransactionID),
		Date:          req.Date,
		Description:   req.Description,
		DebitAmount:   req.DebitAmount,
		CreditAmount:  req.CreditAmount,
		Reference:     req.Reference,
	}

	if err := h.accounts.CreateLedgerEntry(ctx, entry); err != nil {
		h.logger.Error("ledger_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create ledger entry")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// ListReconciliations returns bank reconciliations, optionally
// filtered by bank account
func (h *FinancialHandler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)

	bankAccountID, err := queryUUID(r, "bank_account_id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid filter", "bank_account_id must be a UUID")
		return
	}

	recs, err := h.accounts.ListReconciliations(r.Context(), bankAccountID, offset, limit)
	if err != nil {
		h.logger.Error("reconciliation_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to list reconciliations")
		return
	}

	respondJSON(w, http.StatusOK, recs)
}

type reconciliationRequest struct {
	BankAccountID  uuid.UUID `json:"bank_account_id" validate:"required"`
	StatementDate  time.Time `json:"statement_date" validate:"required"`
	OpeningBalance float64   `json:"opening_balance"`
	ClosingBalance float64   `json:"closing_balance"`
	IsReconciled   bool      `json:"is_reconciled"`
}

// CreateReconciliation records a bank statement reconciliation period
func (h *FinancialHandler) CreateReconciliation(w http.ResponseWriter, r *http.Request) {
	var req reconciliationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.accounts.GetAccountByID(ctx, req.BankAccountID); err != nil {
		if isNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not found", "Bank account not found")
			return
		}
		h.logger.Error("reconciliation_account_lookup_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to fetch account")
		return
	}

	rec := &models.BankReconciliation{
		ID:             uuid.New(),
		BankAccountID:  req.BankAccountID,
		StatementDate:  req.StatementDate,
		OpeningBalance: req.OpeningBalance,
		ClosingBalance: req.ClosingBalance,
		IsReconciled:   req.IsReconciled,
	}
	if rec.IsReconciled {
		now := time.Now()
		rec.ReconciledAt = &now
	}

	if err := h.accounts.CreateReconciliation(ctx, rec); err != nil {
		h.logger.Error("reconciliation_create_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Database error", "Failed to create reconciliation")
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}
