package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

const documentColumns = `id, filename, original_filename, file_path, file_size, mime_type,
	client_id, project_id, task_id, uploaded_by, is_processed, extracted_data, created_at`

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, filename, original_filename, file_path, file_size,
			mime_type, client_id, project_id, task_id, uploaded_by, is_processed,
			extracted_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.Filename, doc.OriginalFilename, doc.FilePath, doc.FileSize,
		doc.MimeType, doc.ClientID, doc.ProjectID, doc.TaskID, doc.UploadedBy,
		doc.IsProcessed, doc.ExtractedData,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by its ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath, &doc.FileSize,
		&doc.MimeType, &doc.ClientID, &doc.ProjectID, &doc.TaskID, &doc.UploadedBy,
		&doc.IsProcessed, &doc.ExtractedData, &doc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// List retrieves documents with optional client filter
func (r *DocumentRepository) List(ctx context.Context, clientID *uuid.UUID, offset, limit int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []any{}

	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		err := rows.Scan(
			&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath, &doc.FileSize,
			&doc.MimeType, &doc.ClientID, &doc.ProjectID, &doc.TaskID, &doc.UploadedBy,
			&doc.IsProcessed, &doc.ExtractedData, &doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// MarkProcessed stores extraction output and flags the document processed
func (r *DocumentRepository) MarkProcessed(ctx context.Context, id uuid.UUID, extractedData string) error {
	query := `UPDATE documents SET is_processed = true, extracted_data = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, extractedData)
	if err != nil {
		return fmt.Errorf("failed to mark document processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check document update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document not found: %w", sql.ErrNoRows)
	}

	return nil
}

// CountProcessed returns processed and total document counts
func (r *DocumentRepository) CountProcessed(ctx context.Context) (processed int64, total int64, err error) {
	query := `SELECT COUNT(*) FILTER (WHERE is_processed), COUNT(*) FROM documents`

	if err := r.db.QueryRowContext(ctx, query).Scan(&processed, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return processed, total, nil
}
