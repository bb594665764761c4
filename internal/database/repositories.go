package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// DocumentRepositoryInterface defines the interface for document repository operations
// This interface enables better testability by allowing mock implementations
type DocumentRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, extractedData string) error
	CountProcessed(ctx context.Context) (processed int64, total int64, err error)
}

// ComplianceRepositoryInterface defines the interface for compliance repository operations
type ComplianceRepositoryInterface interface {
	ListDueWithin(ctx context.Context, cutoff time.Time) ([]*models.Compliance, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ReturnRepositoryInterface defines the interface for GST/TDS return repository operations
type ReturnRepositoryInterface interface {
	ListGSTReturnsForPeriod(ctx context.Context, clientID uuid.UUID, taxPeriod string) ([]*models.GSTReturn, error)
	ListTDSReturnsForQuarter(ctx context.Context, clientID uuid.UUID, quarter string) ([]*models.TDSReturn, error)
}

// UserRepositoryInterface defines the interface for user lookups performed by
// the authentication middleware
type UserRepositoryInterface interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ DocumentRepositoryInterface   = (*DocumentRepository)(nil)
	_ ComplianceRepositoryInterface = (*ComplianceRepository)(nil)
	_ ReturnRepositoryInterface     = (*ReturnRepository)(nil)
	_ UserRepositoryInterface       = (*UserRepository)(nil)
)
