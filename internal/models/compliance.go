package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceType classifies a statutory filing obligation
type ComplianceType string

const (
	ComplianceTypeGST    ComplianceType = "gst"
	ComplianceTypeTDS    ComplianceType = "tds"
	ComplianceTypeITR    ComplianceType = "itr"
	ComplianceTypePF     ComplianceType = "pf"
	ComplianceTypeESI    ComplianceType = "esi"
	ComplianceTypeROC    ComplianceType = "roc"
	ComplianceTypeCustom ComplianceType = "custom"
)

// ComplianceStatus represents the progress of a compliance item or return
type ComplianceStatus string

const (
	ComplianceStatusPending    ComplianceStatus = "pending"
	ComplianceStatusInProgress ComplianceStatus = "in_progress"
	ComplianceStatusCompleted  ComplianceStatus = "completed"
	ComplianceStatusOverdue    ComplianceStatus = "overdue"
	ComplianceStatusCancelled  ComplianceStatus = "cancelled"
)

// TaskPriority represents the urgency of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Project represents an engagement for a client
type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ClientID    uuid.UUID  `json:"client_id"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      string     `json:"status"`
	Budget      *float64   `json:"budget,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task represents a unit of work, optionally under a project
type Task struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    *string      `json:"description,omitempty"`
	ProjectID      *uuid.UUID   `json:"project_id,omitempty"`
	AssignedTo     *uuid.UUID   `json:"assigned_to,omitempty"`
	Priority       TaskPriority `json:"priority"`
	Status         string       `json:"status"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    *float64     `json:"actual_hours,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Compliance represents a statutory obligation tracked for a client
type Compliance struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Type        ComplianceType   `json:"type"`
	ClientID    uuid.UUID        `json:"client_id"`
	DueDate     time.Time        `json:"due_date"`
	Status      ComplianceStatus `json:"status"`
	Description *string          `json:"description,omitempty"`
	AssignedTo  *uuid.UUID       `json:"assigned_to,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// GSTReturn represents a periodic GST filing for a client
type GSTReturn struct {
	ID                    uuid.UUID        `json:"id"`
	ClientID              uuid.UUID        `json:"client_id"`
	ReturnType            string           `json:"return_type"` // GSTR-1, GSTR-3B, GSTR-9, ...
	TaxPeriod             string           `json:"tax_period"`  // e.g. 2023-24
	DueDate               time.Time        `json:"due_date"`
	FilingDate            *time.Time       `json:"filing_date,omitempty"`
	Status                ComplianceStatus `json:"status"`
	TotalTaxLiability     float64          `json:"total_tax_liability"`
	TotalTaxPaid          float64          `json:"total_tax_paid"`
	PenaltyAmount         float64          `json:"penalty_amount"`
	AcknowledgmentNumber  *string          `json:"acknowledgment_number,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// TDSReturn represents a quarterly TDS filing for a client
type TDSReturn struct {
	ID                   uuid.UUID        `json:"id"`
	ClientID             uuid.UUID        `json:"client_id"`
	FormType             string           `json:"form_type"` // 24Q, 26Q, 27Q, ...
	Quarter              string           `json:"quarter"`   // Q1..Q4
	FinancialYear        string           `json:"financial_year"`
	DueDate              time.Time        `json:"due_date"`
	FilingDate           *time.Time       `json:"filing_date,omitempty"`
	Status               ComplianceStatus `json:"status"`
	TotalTDSDeducted     float64          `json:"total_tds_deducted"`
	TotalTDSDeposited    float64          `json:"total_tds_deposited"`
	AcknowledgmentNumber *string          `json:"acknowledgment_number,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Document represents an uploaded file, optionally AI-processed
type Document struct {
	ID               uuid.UUID  `json:"id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FilePath         string     `json:"file_path"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	ClientID         *uuid.UUID `json:"client_id,omitempty"`
	ProjectID        *uuid.UUID `json:"project_id,omitempty"`
	TaskID           *uuid.UUID `json:"task_id,omitempty"`
	UploadedBy       uuid.UUID  `json:"uploaded_by"`
	IsProcessed      bool       `json:"is_processed"`
	ExtractedData    *string    `json:"extracted_data,omitempty"` // JSON payload from AI extraction
	CreatedAt        time.Time  `json:"created_at"`
}

// TimeEntry represents tracked working time, billable or not
type TimeEntry struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	TaskID        *uuid.UUID `json:"task_id,omitempty"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	DurationHours *float64   `json:"duration_hours,omitempty"`
	Description   *string    `json:"description,omitempty"`
	IsBillable    bool       `json:"is_billable"`
	HourlyRate    *float64   `json:"hourly_rate,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ValidComplianceType reports whether the given string is a known compliance type
func ValidComplianceType(value string) bool {
	switch ComplianceType(value) {
	case ComplianceTypeGST, ComplianceTypeTDS, ComplianceTypeITR, ComplianceTypePF,
		ComplianceTypeESI, ComplianceTypeROC, ComplianceTypeCustom:
		return true
	default:
		return false
	}
}

// ValidComplianceStatus reports whether the given string is a known compliance status
func ValidComplianceStatus(value string) bool {
	switch ComplianceStatus(value) {
	case ComplianceStatusPending, ComplianceStatusInProgress, ComplianceStatusCompleted,
		ComplianceStatusOverdue, ComplianceStatusCancelled:
		return true
	default:
		return false
	}
}

// ValidTaskPriority reports whether the given string is a known task priority
func ValidTaskPriority(value string) bool {
	switch TaskPriority(value) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}
