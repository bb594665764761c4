package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// AuditLogRepository handles audit trail persistence
type AuditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Record writes an audit log entry. Failures here must never abort the
// mutation being audited; callers log and continue.
func (r *AuditLogRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, resource, resource_id,
			old_values, new_values, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.OldValues,
		entry.NewValues,
		entry.IPAddress,
		entry.UserAgent,
		time.Now(),
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}

	return nil
}

// ListByUser retrieves audit entries for a user, newest first
func (r *AuditLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, resource, resource_id, old_values, new_values,
			ip_address, user_agent, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var entries []*models.AuditLog
	for rows.Next() {
		e := &models.AuditLog{}
		err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID,
			&e.OldValues, &e.NewValues, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}

	return entries, nil
}
