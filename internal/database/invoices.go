package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// InvoiceRepository handles invoice and invoice item database operations
type InvoiceRepository struct {
	db *DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, invoice_number, client_id, issue_date, due_date,
	subtotal, tax_amount, total_amount, status, notes, created_at, updated_at`

// NextInvoiceNumber generates an INV-YYYYMM-NNNN number from the count of
// invoices created in the current month.
func (r *InvoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var count int
	query := `SELECT COUNT(*) FROM invoices WHERE date_trunc('month', created_at) = date_trunc('month', now())`

	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return "", fmt.Errorf("failed to count invoices for numbering: %w", err)
	}

	now := time.Now()
	return fmt.Sprintf("INV-%d%02d-%04d", now.Year(), int(now.Month()), count+1), nil
}

// Create creates an invoice with its items in a single transaction
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			_ = rollbackErr
		}
	}()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices (id, invoice_number, client_id, issue_date, due_date,
			subtotal, tax_amount, total_amount, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING created_at, updated_at
	`,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.ClientID,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Subtotal,
		invoice.TaxAmount,
		invoice.TotalAmount,
		invoice.Status,
		invoice.Notes,
		now,
	).Scan(&invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	for _, item := range invoice.Items {
		item.InvoiceID = invoice.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price,
				total_price, tax_rate, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`,
			item.ID,
			item.InvoiceID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.TaxRate,
			now,
		).Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice and its items by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	invoice := &models.Invoice{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.ClientID,
		&invoice.IssueDate,
		&invoice.DueDate,
		&invoice.Subtotal,
		&invoice.TaxAmount,
		&invoice.TotalAmount,
		&invoice.Status,
		&invoice.Notes,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := r.itemsForInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return invoice, nil
}

func (r *InvoiceRepository) itemsForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*models.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, total_price, tax_rate, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var items []*models.InvoiceItem
	for rows.Next() {
		item := &models.InvoiceItem{}
		err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.TaxRate, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice items: %w", err)
	}

	return items, nil
}

// List retrieves invoices with optional client and status filters
func (r *InvoiceRepository) List(ctx context.Context, clientID *uuid.UUID, status *models.InvoiceStatus, offset, limit int) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}

	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		err := rows.Scan(
			&invoice.ID,
			&invoice.InvoiceNumber,
			&invoice.ClientID,
			&invoice.IssueDate,
			&invoice.DueDate,
			&invoice.Subtotal,
			&invoice.TaxAmount,
			&invoice.TotalAmount,
			&invoice.Status,
			&invoice.Notes,
			&invoice.CreatedAt,
			&invoice.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	return invoices, nil
}

// ListByClient retrieves all invoices for a client
func (r *InvoiceRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Invoice, error) {
	return r.List(ctx, &clientID, nil, 0, 1000)
}

// Update updates invoice header fields (items are immutable once created)
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	query := `
		UPDATE invoices
		SET issue_date = $2, due_date = $3, subtotal = $4, tax_amount = $5,
			total_amount = $6, status = $7, notes = $8, updated_at = $9
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		invoice.ID,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Subtotal,
		invoice.TaxAmount,
		invoice.TotalAmount,
		invoice.Status,
		invoice.Notes,
		time.Now(),
	).Scan(&invoice.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("invoice not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return nil
}

// Delete deletes an invoice; items cascade
func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("invoice not found: %w", sql.ErrNoRows)
	}

	return nil
}
