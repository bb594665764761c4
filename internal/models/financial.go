package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// PaymentStatus represents the state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// AccountType classifies a chart-of-accounts entry
type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

// Invoice represents a client invoice with computed totals
type Invoice struct {
	ID            uuid.UUID      `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	ClientID      uuid.UUID      `json:"client_id"`
	IssueDate     time.Time      `json:"issue_date"`
	DueDate       time.Time      `json:"due_date"`
	Subtotal      float64        `json:"subtotal"`
	TaxAmount     float64        `json:"tax_amount"`
	TotalAmount   float64        `json:"total_amount"`
	Status        InvoiceStatus  `json:"status"`
	Notes         *string        `json:"notes,omitempty"`
	Items         []*InvoiceItem `json:"items,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// InvoiceItem represents a single line on an invoice
type InvoiceItem struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	TaxRate     float64   `json:"tax_rate"`
	CreatedAt   time.Time `json:"created_at"`
}

// ComputeTotals derives subtotal, tax and total from the invoice items.
// Tax is applied per item from its tax_rate percentage.
func (inv *Invoice) ComputeTotals() {
	var subtotal, tax float64
	for _, item := range inv.Items {
		subtotal += item.TotalPrice
		tax += item.TotalPrice * item.TaxRate / 100
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.TotalAmount = subtotal + tax
}

// Payment represents a payment recorded against an invoice
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	InvoiceID     uuid.UUID     `json:"invoice_id"`
	Amount        float64       `json:"amount"`
	PaymentDate   time.Time     `json:"payment_date"`
	PaymentMethod string        `json:"payment_method"`
	Reference     *string       `json:"reference,omitempty"`
	Status        PaymentStatus `json:"status"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Account represents a chart-of-accounts entry
type Account struct {
	ID          uuid.UUID   `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"account_type"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// LedgerEntry represents a general ledger line
type LedgerEntry struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"date"`
	Description   *string   `json:"description,omitempty"`
	DebitAmount   float64   `json:"debit_amount"`
	CreditAmount  float64   `json:"credit_amount"`
	Balance       float64   `json:"balance"`
	Reference     *string   `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BankReconciliation represents a bank statement reconciliation period
type BankReconciliation struct {
	ID             uuid.UUID  `json:"id"`
	BankAccountID  uuid.UUID  `json:"bank_account_id"`
	StatementDate  time.Time  `json:"statement_date"`
	OpeningBalance float64    `json:"opening_balance"`
	ClosingBalance float64    `json:"closing_balance"`
	IsReconciled   bool       `json:"is_reconciled"`
	ReconciledAt   *time.Time `json:"reconciled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DeriveInvoiceStatus returns the invoice status implied by the total of
// completed payments: paid when the total is covered, partially_paid when
// anything has been paid, the current status otherwise.
func DeriveInvoiceStatus(paid, total float64, current InvoiceStatus) InvoiceStatus {
	switch {
	case paid >= total:
		return InvoiceStatusPaid
	case paid > 0:
		return InvoiceStatusPartiallyPaid
	default:
		return current
	}
}

// ValidInvoiceStatus reports whether the given string is a known invoice status
func ValidInvoiceStatus(status string) bool {
	switch InvoiceStatus(status) {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// ValidPaymentStatus reports whether the given string is a known payment status
func ValidPaymentStatus(status string) bool {
	switch PaymentStatus(status) {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// ValidAccountType reports whether the given string is a known account type
func ValidAccountType(accountType string) bool {
	switch AccountType(accountType) {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}
