package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewDocumentExtractionJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	docID := uuid.New()
	job := NewDocumentExtractionJob(userID, docID, "invoice")

	if job.Type != JobTypeDocumentExtraction {
		t.Errorf("Type = %q, want %q", job.Type, JobTypeDocumentExtraction)
	}
	if job.UserID != userID {
		t.Errorf("UserID = %s, want %s", job.UserID, userID)
	}
	if job.DocumentID == nil || *job.DocumentID != docID {
		t.Errorf("DocumentID = %v, want %s", job.DocumentID, docID)
	}
	if got := job.DocumentType(); got != "invoice" {
		t.Errorf("DocumentType() = %q, want %q", got, "invoice")
	}
	if job.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", job.MaxRetries)
	}
}

func TestJobShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		notBefore *time.Time
		notAfter  *time.Time
		want      bool
	}{
		{name: "no window", want: true},
		{name: "not before passed", notBefore: &past, want: true},
		{name: "not before in future", notBefore: &future, want: false},
		{name: "not after in future", notAfter: &future, want: true},
		{name: "expired", notAfter: &past, want: false},
		{name: "open window", notBefore: &past, notAfter: &future, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := NewJob(JobTypeComplianceScan, uuid.New())
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter
			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobIsExpired(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeComplianceScan, uuid.New())
	if job.IsExpired() {
		t.Error("IsExpired() = true for job with no deadline")
	}

	past := time.Now().Add(-time.Minute)
	job.NotAfter = &past
	if !job.IsExpired() {
		t.Error("IsExpired() = false for job past its deadline")
	}
}

func TestJobRetry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeDocumentExtraction, uuid.New())
	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("CanRetry() = false at retry %d", i)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Error("CanRetry() = true after exhausting retries")
	}
}

func TestJobDocumentTypeDefault(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeDocumentExtraction, uuid.New())
	if got := job.DocumentType(); got != "generic" {
		t.Errorf("DocumentType() = %q, want %q", got, "generic")
	}

	job.Metadata["document_type"] = ""
	if got := job.DocumentType(); got != "generic" {
		t.Errorf("DocumentType() with empty value = %q, want %q", got, "generic")
	}
}
