package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/queue"
	"github.com/ledgerly/compliance-api/internal/services/ai"
)

// maxExtractSample bounds how much of a stored document is sent to
// the AI provider.
const maxExtractSample = 8000

// Scanner runs one compliance deadline scan pass
type Scanner interface {
	Scan(ctx context.Context) error
}

// DocumentProcessor consumes queued jobs: document extraction through
// the AI provider, and on-demand compliance scans via the scanner
type DocumentProcessor struct {
	documents database.DocumentRepositoryInterface
	provider  ai.Provider
	jobs      queue.JobQueue
	scanner   Scanner
	logger    *zap.Logger
}

// NewDocumentProcessor creates a document processor. scanner may be
// nil; compliance scan jobs are then dead-lettered.
func NewDocumentProcessor(documents database.DocumentRepositoryInterface, provider ai.Provider, jobs queue.JobQueue, scanner Scanner, logger *zap.Logger) *DocumentProcessor {
	return &DocumentProcessor{documents: documents, provider: provider, jobs: jobs, scanner: scanner, logger: logger}
}

// Run consumes extraction jobs until the context is cancelled
func (p *DocumentProcessor) Run(ctx context.Context, prefetch int) error {
	messages, errs, err := p.jobs.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			p.logger.Error("queue_consume_error", zap.Error(consumeErr))
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			p.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes one job and settles its delivery
func (p *DocumentProcessor) handleMessage(ctx context.Context, msg *queue.Message) {
	job := msg.GetJob()

	var err error
	switch {
	case job != nil && job.Type == queue.JobTypeDocumentExtraction && job.DocumentID != nil:
		err = p.process(ctx, job)
	case job != nil && job.Type == queue.JobTypeComplianceScan && p.scanner != nil:
		err = p.scanner.Scan(ctx)
	default:
		p.logger.Warn("job_discarded", zap.String("reason", "unsupported job"))
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("message_nack_failed", zap.Error(nackErr))
		}
		return
	}

	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			p.logger.Error("message_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
		}
		return
	}

	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	}
	if job.DocumentID != nil {
		fields = append(fields, zap.String("document_id", job.DocumentID.String()))
	}
	p.logger.Error("job_failed", fields...)

	p.retryOrBury(ctx, msg, job, err)
}

// retryOrBury re-enqueues a failed job with backoff, or dead-letters
// it when retries are exhausted or the error is permanent.
func (p *DocumentProcessor) retryOrBury(ctx context.Context, msg *queue.Message, job *queue.Job, cause error) {
	permanent := false
	if apiErr := ai.ExtractAPIError(cause); apiErr != nil {
		permanent = apiErr.IsPermanent
	}

	if permanent || !job.CanRetry() {
		if err := msg.Nack(false); err != nil {
			p.logger.Error("message_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		return
	}

	job.IncrementRetry()
	notBefore := time.Now().Add(ai.GetRetryDelay(cause, job.RetryCount))
	job.NotBefore = &notBefore

	if err := p.jobs.Enqueue(ctx, job); err != nil {
		p.logger.Error("job_requeue_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("message_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return
	}
	if err := msg.Ack(); err != nil {
		p.logger.Error("message_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

// process extracts one document and stores the result
func (p *DocumentProcessor) process(ctx context.Context, job *queue.Job) error {
	doc, err := p.documents.GetByID(ctx, *job.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if doc.IsProcessed {
		p.logger.Info("document_already_processed", zap.String("document_id", doc.ID.String()))
		return nil
	}

	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read stored file: %w", err)
	}
	content := string(data)
	if len(content) > maxExtractSample {
		content = content[:maxExtractSample]
	}

	result, err := p.provider.ExtractDocument(ctx, ai.ExtractionRequest{
		Filename:     doc.OriginalFilename,
		MimeType:     doc.MimeType,
		DocumentType: job.DocumentType(),
		Content:      content,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	extracted, err := encodeFields(result.Fields)
	if err != nil {
		return err
	}
	if err := p.documents.MarkProcessed(ctx, doc.ID, extracted); err != nil {
		return fmt.Errorf("failed to store extraction result: %w", err)
	}

	p.logger.Info("document_processed",
		zap.String("document_id", doc.ID.String()),
		zap.Float64("confidence", result.Confidence))

	return nil
}

// encodeFields serializes extracted fields for storage
func encodeFields(fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode extracted fields: %w", err)
	}
	return string(data), nil
}
