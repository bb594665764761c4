package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// ClientRepository handles client database operations
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, name, email, phone, gstin, pan, address, city, state,
	pincode, assigned_user_id, status, created_at, updated_at`

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, gstin, pan, address, city, state,
			pincode, assigned_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.GSTIN,
		client.PAN,
		client.Address,
		client.City,
		client.State,
		client.Pincode,
		client.AssignedUserID,
		client.Status,
		time.Now(),
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client := &models.Client{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.GSTIN,
		&client.PAN,
		&client.Address,
		&client.City,
		&client.State,
		&client.Pincode,
		&client.AssignedUserID,
		&client.Status,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// GetByGSTIN retrieves a client by GSTIN
func (r *ClientRepository) GetByGSTIN(ctx context.Context, gstin string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE gstin = $1`

	client := &models.Client{}
	err := r.db.QueryRowContext(ctx, query, gstin).Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.GSTIN,
		&client.PAN,
		&client.Address,
		&client.City,
		&client.State,
		&client.Pincode,
		&client.AssignedUserID,
		&client.Status,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by GSTIN: %w", err)
	}

	return client, nil
}

// List retrieves clients with optional search over name, email, phone and GSTIN
func (r *ClientRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	args := []any{}

	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1 OR gstin ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Email,
			&client.Phone,
			&client.GSTIN,
			&client.PAN,
			&client.Address,
			&client.City,
			&client.State,
			&client.Pincode,
			&client.AssignedUserID,
			&client.Status,
			&client.CreatedAt,
			&client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, nil
}

// Update updates an existing client
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $2, email = $3, phone = $4, gstin = $5, pan = $6, address = $7,
			city = $8, state = $9, pincode = $10, assigned_user_id = $11, status = $12,
			updated_at = $13
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.GSTIN,
		client.PAN,
		client.Address,
		client.City,
		client.State,
		client.Pincode,
		client.AssignedUserID,
		client.Status,
		time.Now(),
	).Scan(&client.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// Delete deletes a client by ID
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("client not found: %w", sql.ErrNoRows)
	}

	return nil
}
