package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeDocumentExtraction is a job for extracting structured data from an uploaded document
	JobTypeDocumentExtraction JobType = "document_extraction"
	// JobTypeComplianceScan is a job for scanning compliance deadlines and refreshing the risk snapshot
	JobTypeComplianceScan JobType = "compliance_scan"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	DocumentID *uuid.UUID     `json:"document_id,omitempty"` // Set for document extraction jobs
	ClientID   *uuid.UUID     `json:"client_id,omitempty"`   // Optional scoping for compliance scans
	NotBefore  *time.Time     `json:"not_before,omitempty"`  // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`   // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`    // Job-specific data, e.g. document_type
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewDocumentExtractionJob creates a job for extracting a single document
func NewDocumentExtractionJob(userID, documentID uuid.UUID, documentType string) *Job {
	job := NewJob(JobTypeDocumentExtraction, userID)
	job.DocumentID = &documentID
	job.Metadata["document_type"] = documentType
	return job
}

// NewComplianceScanJob creates a job for a compliance deadline scan.
// A nil clientID scans all clients.
func NewComplianceScanJob(userID uuid.UUID, clientID *uuid.UUID) *Job {
	job := NewJob(JobTypeComplianceScan, userID)
	job.ClientID = clientID
	return job
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// DocumentType returns the requested extraction document type, defaulting to generic
func (j *Job) DocumentType() string {
	if v, ok := j.Metadata["document_type"].(string); ok && v != "" {
		return v
	}
	return "generic"
}
