package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// ReturnRepository handles GST and TDS return database operations
type ReturnRepository struct {
	db *DB
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

// ListGSTReturns retrieves GST returns with optional client and status filters
func (r *ReturnRepository) ListGSTReturns(ctx context.Context, clientID *uuid.UUID, status *models.ComplianceStatus, offset, limit int) ([]*models.GSTReturn, error) {
	query := `
		SELECT id, client_id, return_type, tax_period, due_date, filing_date, status,
			total_tax_liability, total_tax_paid, penalty_amount, acknowledgment_number,
			created_at, updated_at
		FROM gst_returns
		WHERE 1=1
	`
	args := []any{}

	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY due_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list GST returns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var returns []*models.GSTReturn
	for rows.Next() {
		g := &models.GSTReturn{}
		err := rows.Scan(&g.ID, &g.ClientID, &g.ReturnType, &g.TaxPeriod, &g.DueDate,
			&g.FilingDate, &g.Status, &g.TotalTaxLiability, &g.TotalTaxPaid,
			&g.PenaltyAmount, &g.AcknowledgmentNumber, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan GST return: %w", err)
		}
		returns = append(returns, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate GST returns: %w", err)
	}

	return returns, nil
}

// ListGSTReturnsForPeriod retrieves a client's GST returns for a tax period
func (r *ReturnRepository) ListGSTReturnsForPeriod(ctx context.Context, clientID uuid.UUID, taxPeriod string) ([]*models.GSTReturn, error) {
	query := `
		SELECT id, client_id, return_type, tax_period, due_date, filing_date, status,
			total_tax_liability, total_tax_paid, penalty_amount, acknowledgment_number,
			created_at, updated_at
		FROM gst_returns
		WHERE client_id = $1 AND tax_period = $2
		ORDER BY due_date
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, taxPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to list GST returns for period: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var returns []*models.GSTReturn
	for rows.Next() {
		g := &models.GSTReturn{}
		err := rows.Scan(&g.ID, &g.ClientID, &g.ReturnType, &g.TaxPeriod, &g.DueDate,
			&g.FilingDate, &g.Status, &g.TotalTaxLiability, &g.TotalTaxPaid,
			&g.PenaltyAmount, &g.AcknowledgmentNumber, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan GST return: %w", err)
		}
		returns = append(returns, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate GST returns: %w", err)
	}

	return returns, nil
}

// ListTDSReturns retrieves TDS returns with optional client and status filters
func (r *ReturnRepository) ListTDSReturns(ctx context.Context, clientID *uuid.UUID, status *models.ComplianceStatus, offset, limit int) ([]*models.TDSReturn, error) {
	query := `
		SELECT id, client_id, form_type, quarter, financial_year, due_date, filing_date,
			status, total_tds_deducted, total_tds_deposited, acknowledgment_number,
			created_at, updated_at
		FROM tds_returns
		WHERE 1=1
	`
	args := []any{}

	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY due_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list TDS returns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var returns []*models.TDSReturn
	for rows.Next() {
		t := &models.TDSReturn{}
		err := rows.Scan(&t.ID, &t.ClientID, &t.FormType, &t.Quarter, &t.FinancialYear,
			&t.DueDate, &t.FilingDate, &t.Status, &t.TotalTDSDeducted,
			&t.TotalTDSDeposited, &t.AcknowledgmentNumber, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan TDS return: %w", err)
		}
		returns = append(returns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate TDS returns: %w", err)
	}

	return returns, nil
}

// ListTDSReturnsForQuarter retrieves a client's TDS returns for a quarter
func (r *ReturnRepository) ListTDSReturnsForQuarter(ctx context.Context, clientID uuid.UUID, quarter string) ([]*models.TDSReturn, error) {
	query := `
		SELECT id, client_id, form_type, quarter, financial_year, due_date, filing_date,
			status, total_tds_deducted, total_tds_deposited, acknowledgment_number,
			created_at, updated_at
		FROM tds_returns
		WHERE client_id = $1 AND quarter = $2
		ORDER BY due_date
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to list TDS returns for quarter: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var returns []*models.TDSReturn
	for rows.Next() {
		t := &models.TDSReturn{}
		err := rows.Scan(&t.ID, &t.ClientID, &t.FormType, &t.Quarter, &t.FinancialYear,
			&t.DueDate, &t.FilingDate, &t.Status, &t.TotalTDSDeducted,
			&t.TotalTDSDeposited, &t.AcknowledgmentNumber, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan TDS return: %w", err)
		}
		returns = append(returns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate TDS returns: %w", err)
	}

	return returns, nil
}
