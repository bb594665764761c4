package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// ComplianceRepository handles compliance database operations
type ComplianceRepository struct {
	db *DB
}

// NewComplianceRepository creates a new compliance repository
func NewComplianceRepository(db *DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

const complianceColumns = `id, name, type, client_id, due_date, status, description,
	assigned_to, completed_at, notes, created_at, updated_at`

// Create creates a new compliance item
func (r *ComplianceRepository) Create(ctx context.Context, c *models.Compliance) error {
	query := `
		INSERT INTO compliances (id, name, type, client_id, due_date, status, description,
			assigned_to, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.Name,
		c.Type,
		c.ClientID,
		c.DueDate,
		c.Status,
		c.Description,
		c.AssignedTo,
		c.Notes,
		time.Now(),
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create compliance: %w", err)
	}

	return nil
}

// GetByID retrieves a compliance item by ID
func (r *ComplianceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Compliance, error) {
	query := `SELECT ` + complianceColumns + ` FROM compliances WHERE id = $1`

	c := &models.Compliance{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Type,
		&c.ClientID,
		&c.DueDate,
		&c.Status,
		&c.Description,
		&c.AssignedTo,
		&c.CompletedAt,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("compliance not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance: %w", err)
	}

	return c, nil
}

// List retrieves compliance items with optional client, type and status filters
func (r *ComplianceRepository) List(ctx context.Context, clientID *uuid.UUID, complianceType *models.ComplianceType, status *models.ComplianceStatus, offset, limit int) ([]*models.Compliance, error) {
	query := `SELECT ` + complianceColumns + ` FROM compliances WHERE 1=1`
	args := []any{}

	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}
	if complianceType != nil {
		args = append(args, *complianceType)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY due_date OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliances: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var items []*models.Compliance
	for rows.Next() {
		c := &models.Compliance{}
		err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.ClientID, &c.DueDate, &c.Status,
			&c.Description, &c.AssignedTo, &c.CompletedAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compliances: %w", err)
	}

	return items, nil
}

// ListDueWithin retrieves open compliance items whose due date falls before
// the given cutoff. Used by the deadline monitor.
func (r *ComplianceRepository) ListDueWithin(ctx context.Context, cutoff time.Time) ([]*models.Compliance, error) {
	query := `
		SELECT ` + complianceColumns + `
		FROM compliances
		WHERE status IN ($1, $2) AND due_date <= $3
		ORDER BY due_date
	`

	rows, err := r.db.QueryContext(ctx, query,
		models.ComplianceStatusPending, models.ComplianceStatusInProgress, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list due compliances: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var items []*models.Compliance
	for rows.Next() {
		c := &models.Compliance{}
		err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.ClientID, &c.DueDate, &c.Status,
			&c.Description, &c.AssignedTo, &c.CompletedAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due compliances: %w", err)
	}

	return items, nil
}

// MarkOverdue flips open compliance items past their due date to overdue and
// returns the number of rows changed.
func (r *ComplianceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE compliances
		SET status = $1, updated_at = $2
		WHERE status IN ($3, $4) AND due_date < $2
	`

	result, err := r.db.ExecContext(ctx, query,
		models.ComplianceStatusOverdue, now,
		models.ComplianceStatusPending, models.ComplianceStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue compliances: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}
