package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

const timeEntryColumns = `id, user_id, project_id, task_id, client_id, start_time, end_time,
	duration_hours, description, is_billable, hourly_rate, created_at, updated_at`

// TimeEntryRepository handles time entry database operations
type TimeEntryRepository struct {
	db *DB
}

// NewTimeEntryRepository creates a new time entry repository
func NewTimeEntryRepository(db *DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// Create inserts a new time entry
func (r *TimeEntryRepository) Create(ctx context.Context, entry *models.TimeEntry) error {
	query := `
		INSERT INTO time_entries (id, user_id, project_id, task_id, client_id,
			start_time, end_time, duration_hours, description, is_billable, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.ProjectID, entry.TaskID, entry.ClientID,
		entry.StartTime, entry.EndTime, entry.DurationHours, entry.Description,
		entry.IsBillable, entry.HourlyRate,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create time entry: %w", err)
	}

	return nil
}

// GetByID retrieves a time entry by its ID
func (r *TimeEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`

	entry := &models.TimeEntry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.UserID, &entry.ProjectID, &entry.TaskID, &entry.ClientID,
		&entry.StartTime, &entry.EndTime, &entry.DurationHours, &entry.Description,
		&entry.IsBillable, &entry.HourlyRate, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("time entry not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}

	return entry, nil
}

// List retrieves time entries with optional user, project and client filters
func (r *TimeEntryRepository) List(ctx context.Context, userID, projectID, clientID *uuid.UUID, offset, limit int) ([]*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE 1=1`
	args := []any{}

	if userID != nil {
		args = append(args, *userID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if projectID != nil {
		args = append(args, *projectID)
		query += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY start_time DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var entries []*models.TimeEntry
	for rows.Next() {
		entry := &models.TimeEntry{}
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ProjectID, &entry.TaskID, &entry.ClientID,
			&entry.StartTime, &entry.EndTime, &entry.DurationHours, &entry.Description,
			&entry.IsBillable, &entry.HourlyRate, &entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	return entries, nil
}

// Stop closes a running entry at the given time and records its duration.
// Entries that already have an end_time are left untouched.
func (r *TimeEntryRepository) Stop(ctx context.Context, id uuid.UUID, endTime time.Time) (*models.TimeEntry, error) {
	query := `
		UPDATE time_entries
		SET end_time = $2,
			duration_hours = EXTRACT(EPOCH FROM ($2 - start_time)) / 3600,
			updated_at = NOW()
		WHERE id = $1 AND end_time IS NULL
		RETURNING ` + timeEntryColumns

	entry := &models.TimeEntry{}
	err := r.db.QueryRowContext(ctx, query, id, endTime).Scan(
		&entry.ID, &entry.UserID, &entry.ProjectID, &entry.TaskID, &entry.ClientID,
		&entry.StartTime, &entry.EndTime, &entry.DurationHours, &entry.Description,
		&entry.IsBillable, &entry.HourlyRate, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("running time entry not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stop time entry: %w", err)
	}

	return entry, nil
}
