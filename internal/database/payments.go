package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, amount, payment_date, payment_method,
			reference, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		payment.ID,
		payment.InvoiceID,
		payment.Amount,
		payment.PaymentDate,
		payment.PaymentMethod,
		payment.Reference,
		payment.Status,
		payment.Notes,
		time.Now(),
	).Scan(&payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// List retrieves payments with an optional invoice filter
func (r *PaymentRepository) List(ctx context.Context, invoiceID *uuid.UUID, offset, limit int) ([]*models.Payment, error) {
	query := `
		SELECT id, invoice_id, amount, payment_date, payment_method, reference, status, notes, created_at
		FROM payments
	`
	args := []any{}

	if invoiceID != nil {
		query += ` WHERE invoice_id = $1`
		args = append(args, *invoiceID)
	}

	query += fmt.Sprintf(` ORDER BY payment_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.PaymentMethod,
			&p.Reference, &p.Status, &p.Notes, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// TotalCompletedForInvoice sums completed payment amounts against an invoice
func (r *PaymentRepository) TotalCompletedForInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1 AND status = $2`

	err := r.db.QueryRowContext(ctx, query, invoiceID, models.PaymentStatusCompleted).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}

	return total, nil
}
