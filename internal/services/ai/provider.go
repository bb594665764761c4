package ai

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document types accepted by extraction.
const (
	DocumentTypeInvoice       = "invoice"
	DocumentTypeGSTReturn     = "gst_return"
	DocumentTypeBankStatement = "bank_statement"
	DocumentTypeGeneric       = "generic"
)

// Provider is the interface for AI providers
type Provider interface {
	// ExtractDocument extracts structured fields from an uploaded document
	ExtractDocument(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)

	// ReconcileGST compares a client's GST filings for a period and reports discrepancies
	ReconcileGST(ctx context.Context, input GSTReconciliationInput) (*ReconciliationResult, error)

	// ReconcileTDS compares a client's TDS filings for a quarter and reports discrepancies
	ReconcileTDS(ctx context.Context, input TDSReconciliationInput) (*ReconciliationResult, error)

	// MonitorCompliance assesses deadline risk over the given compliance items
	MonitorCompliance(ctx context.Context, deadlines []DeadlineSummary) (*MonitoringResult, error)

	// CategorizeTransaction suggests an account category for a transaction
	CategorizeTransaction(ctx context.Context, tx TransactionInput) (*CategorizationResult, error)

	// DetectAnomalies flags unusual entries in a ledger slice
	DetectAnomalies(ctx context.Context, input AnomalyInput) (*AnomalyReport, error)
}

// ExtractionRequest describes a document to extract
type ExtractionRequest struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	DocumentType string `json:"document_type"` // invoice, gst_return, bank_statement, generic
	Content      string `json:"content"`       // text content or excerpt of the document
}

// ExtractionResult holds structured fields pulled from a document
type ExtractionResult struct {
	Fields         map[string]any `json:"fields"`
	Confidence     float64        `json:"confidence"`
	ProcessingTime float64        `json:"processing_time"` // seconds
}

// GSTReconciliationInput carries a client's GST filing summary for a tax period
type GSTReconciliationInput struct {
	ClientID uuid.UUID          `json:"client_id"`
	Period   string             `json:"period"`
	Returns  []GSTReturnSummary `json:"returns"`
}

// GSTReturnSummary is the reconciliation-relevant slice of a GST return
type GSTReturnSummary struct {
	ReturnType   string  `json:"return_type"`
	TaxLiability float64 `json:"tax_liability"`
	TaxPaid      float64 `json:"tax_paid"`
	Status       string  `json:"status"`
}

// TDSReconciliationInput carries a client's TDS filing summary for a quarter
type TDSReconciliationInput struct {
	ClientID uuid.UUID          `json:"client_id"`
	Quarter  string             `json:"quarter"`
	Returns  []TDSReturnSummary `json:"returns"`
}

// TDSReturnSummary is the reconciliation-relevant slice of a TDS return
type TDSReturnSummary struct {
	FormType     string  `json:"form_type"`
	TDSDeducted  float64 `json:"tds_deducted"`
	TDSDeposited float64 `json:"tds_deposited"`
	Status       string  `json:"status"`
}

// ReconciliationResult reports discrepancies found between filings
type ReconciliationResult struct {
	Discrepancies   []string `json:"discrepancies"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// DeadlineSummary describes one compliance item for risk assessment
type DeadlineSummary struct {
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	DueDate  time.Time `json:"due_date"`
	Status   string    `json:"status"`
}

// MonitoringResult holds the AI risk assessment over compliance deadlines
type MonitoringResult struct {
	Alerts          []string `json:"alerts"`
	RiskLevel       string   `json:"risk_level"` // low, medium, high
	Recommendations []string `json:"recommendations"`
}

// TransactionInput describes a transaction to categorize
type TransactionInput struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Merchant    string  `json:"merchant,omitempty"`
}

// CategorizationResult suggests an account category for a transaction
type CategorizationResult struct {
	Category     string   `json:"category"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
	Reasoning    string   `json:"reasoning"`
}

// AnomalyInput carries ledger entry summaries for anomaly detection
type AnomalyInput struct {
	ClientID uuid.UUID      `json:"client_id"`
	DataType string         `json:"data_type"` // financial
	Entries  []LedgerSample `json:"entries"`
}

// LedgerSample is the anomaly-relevant slice of a ledger entry
type LedgerSample struct {
	EntryID     uuid.UUID `json:"entry_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
}

// Anomaly flags one suspicious ledger entry
type Anomaly struct {
	EntryID     *uuid.UUID `json:"entry_id,omitempty"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"` // low, medium, high
}

// AnomalyReport summarizes detected anomalies
type AnomalyReport struct {
	Anomalies       []Anomaly `json:"anomalies"`
	RiskLevel       string    `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
}

// RiskLevelForCount derives a coarse risk level from an anomaly count
func RiskLevelForCount(count int) string {
	switch {
	case count == 0:
		return "low"
	case count < 3:
		return "medium"
	default:
		return "high"
	}
}
