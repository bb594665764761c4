package workers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/queue"
	"github.com/ledgerly/compliance-api/internal/services/ai"
)

type fakeDocuments struct {
	doc       *models.Document
	getErr    error
	markedID  uuid.UUID
	markedRaw string
}

func (f *fakeDocuments) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *fakeDocuments) MarkProcessed(ctx context.Context, id uuid.UUID, extractedData string) error {
	f.markedID = id
	f.markedRaw = extractedData
	return nil
}

func (f *fakeDocuments) CountProcessed(ctx context.Context) (int64, int64, error) {
	return 0, 0, nil
}

type fakeProvider struct {
	ai.Provider

	extractErr error
	lastReq    ai.ExtractionRequest
}

func (f *fakeProvider) ExtractDocument(ctx context.Context, req ai.ExtractionRequest) (*ai.ExtractionResult, error) {
	f.lastReq = req
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return &ai.ExtractionResult{
		Fields:     map[string]any{"invoice_number": "INV-2025-0001", "total_amount": 1180.0},
		Confidence: 0.92,
	}, nil
}

func writeTempDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestDocumentProcessorProcess(t *testing.T) {
	t.Parallel()

	docID := uuid.New()
	docs := &fakeDocuments{doc: &models.Document{
		ID:               docID,
		OriginalFilename: "invoice.txt",
		MimeType:         "text/plain",
		FilePath:         writeTempDocument(t, "Invoice INV-2025-0001 total 1180"),
	}}
	provider := &fakeProvider{}
	p := NewDocumentProcessor(docs, provider, nil, nil, zap.NewNop())

	job := queue.NewDocumentExtractionJob(uuid.New(), docID, "invoice")
	if err := p.process(context.Background(), job); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	if docs.markedID != docID {
		t.Errorf("MarkProcessed id = %s, want %s", docs.markedID, docID)
	}
	if !strings.Contains(docs.markedRaw, "INV-2025-0001") {
		t.Errorf("stored extraction = %q", docs.markedRaw)
	}
	if provider.lastReq.DocumentType != "invoice" {
		t.Errorf("DocumentType sent = %q, want invoice", provider.lastReq.DocumentType)
	}
	if provider.lastReq.Filename != "invoice.txt" {
		t.Errorf("Filename sent = %q", provider.lastReq.Filename)
	}
}

func TestDocumentProcessorProcessCapsContent(t *testing.T) {
	t.Parallel()

	docID := uuid.New()
	docs := &fakeDocuments{doc: &models.Document{
		ID:       docID,
		FilePath: writeTempDocument(t, strings.Repeat("x", maxExtractSample+500)),
	}}
	provider := &fakeProvider{}
	p := NewDocumentProcessor(docs, provider, nil, nil, zap.NewNop())

	job := queue.NewDocumentExtractionJob(uuid.New(), docID, "generic")
	if err := p.process(context.Background(), job); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if len(provider.lastReq.Content) != maxExtractSample {
		t.Errorf("content length = %d, want %d", len(provider.lastReq.Content), maxExtractSample)
	}
}

func TestDocumentProcessorSkipsProcessed(t *testing.T) {
	t.Parallel()

	docID := uuid.New()
	docs := &fakeDocuments{doc: &models.Document{ID: docID, IsProcessed: true}}
	provider := &fakeProvider{}
	p := NewDocumentProcessor(docs, provider, nil, nil, zap.NewNop())

	job := queue.NewDocumentExtractionJob(uuid.New(), docID, "invoice")
	if err := p.process(context.Background(), job); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if provider.lastReq.Filename != "" {
		t.Error("provider called for already processed document")
	}
	if docs.markedID != uuid.Nil {
		t.Error("MarkProcessed called for already processed document")
	}
}

func TestDocumentProcessorProcessMissingDocument(t *testing.T) {
	t.Parallel()

	docs := &fakeDocuments{getErr: sql.ErrNoRows}
	p := NewDocumentProcessor(docs, &fakeProvider{}, nil, nil, zap.NewNop())

	job := queue.NewDocumentExtractionJob(uuid.New(), uuid.New(), "invoice")
	if err := p.process(context.Background(), job); err == nil {
		t.Error("process() succeeded for missing document")
	}
}
