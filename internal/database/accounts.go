package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/compliance-api/internal/models"
)

// AccountRepository handles chart of accounts, general ledger and bank
// reconciliation database operations
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount creates a chart-of-accounts entry
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO chart_of_accounts (id, code, name, account_type, parent_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Code,
		account.Name,
		account.AccountType,
		account.ParentID,
		account.IsActive,
		time.Now(),
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves a chart-of-accounts entry by ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT id, code, name, account_type, parent_id, is_active, created_at, updated_at
		FROM chart_of_accounts
		WHERE id = $1
	`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Code,
		&account.Name,
		&account.AccountType,
		&account.ParentID,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// ListAccounts retrieves chart-of-accounts entries with an optional type filter
func (r *AccountRepository) ListAccounts(ctx context.Context, accountType *models.AccountType, offset, limit int) ([]*models.Account, error) {
	query := `
		SELECT id, code, name, account_type, parent_id, is_active, created_at, updated_at
		FROM chart_of_accounts
	`
	args := []any{}

	if accountType != nil {
		query += ` WHERE account_type = $1`
		args = append(args, *accountType)
	}

	query += fmt.Sprintf(` ORDER BY code OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var accounts []*models.Account
	for rows.Next() {
		a := &models.Account{}
		err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.AccountType, &a.ParentID,
			&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// CreateLedgerEntry creates a general ledger entry
func (r *AccountRepository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO general_ledger (id, account_id, transaction_id, date, description,
			debit_amount, credit_amount, balance, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.TransactionID,
		entry.Date,
		entry.Description,
		entry.DebitAmount,
		entry.CreditAmount,
		entry.Balance,
		entry.Reference,
		time.Now(),
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// ListLedgerEntries retrieves general ledger entries with account and date filters
func (r *AccountRepository) ListLedgerEntries(ctx context.Context, accountID *uuid.UUID, start, end *time.Time, offset, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, account_id, transaction_id, date, description, debit_amount,
			credit_amount, balance, reference, created_at
		FROM general_ledger
		WHERE 1=1
	`
	args := []any{}

	if accountID != nil {
		args = append(args, *accountID)
		query += fmt.Sprintf(` AND account_id = $%d`, len(args))
	}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	query += fmt.Sprintf(` ORDER BY date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e := &models.LedgerEntry{}
		err := rows.Scan(&e.ID, &e.AccountID, &e.TransactionID, &e.Date, &e.Description,
			&e.DebitAmount, &e.CreditAmount, &e.Balance, &e.Reference, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// CreateReconciliation creates a bank reconciliation record
func (r *AccountRepository) CreateReconciliation(ctx context.Context, rec *models.BankReconciliation) error {
	query := `
		INSERT INTO bank_reconciliations (id, bank_account_id, statement_date,
			opening_balance, closing_balance, is_reconciled, reconciled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.BankAccountID,
		rec.StatementDate,
		rec.OpeningBalance,
		rec.ClosingBalance,
		rec.IsReconciled,
		rec.ReconciledAt,
		time.Now(),
	).Scan(&rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bank reconciliation: %w", err)
	}

	return nil
}

// ListReconciliations retrieves bank reconciliations with an optional account filter
func (r *AccountRepository) ListReconciliations(ctx context.Context, bankAccountID *uuid.UUID, offset, limit int) ([]*models.BankReconciliation, error) {
	query := `
		SELECT id, bank_account_id, statement_date, opening_balance, closing_balance,
			is_reconciled, reconciled_at, created_at
		FROM bank_reconciliations
	`
	args := []any{}

	if bankAccountID != nil {
		query += ` WHERE bank_account_id = $1`
		args = append(args, *bankAccountID)
	}

	query += fmt.Sprintf(` ORDER BY statement_date DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank reconciliations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var recs []*models.BankReconciliation
	for rows.Next() {
		rec := &models.BankReconciliation{}
		err := rows.Scan(&rec.ID, &rec.BankAccountID, &rec.StatementDate, &rec.OpeningBalance,
			&rec.ClosingBalance, &rec.IsReconciled, &rec.ReconciledAt, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank reconciliation: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank reconciliations: %w", err)
	}

	return recs, nil
}
