package database

import (
	"context"
	"fmt"
)

// schemaStatements creates all tables if they do not yet exist. The ordering
// matters: referenced tables come before their dependents.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		username VARCHAR(100) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'client',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		phone VARCHAR(20),
		department VARCHAR(100),
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by UUID
	)`,
	`CREATE TABLE IF NOT EXISTS permissions (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT,
		resource VARCHAR(100) NOT NULL,
		action VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		id UUID PRIMARY KEY,
		role VARCHAR(20) NOT NULL,
		permission_id UUID NOT NULL REFERENCES permissions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		action VARCHAR(100) NOT NULL,
		resource VARCHAR(100) NOT NULL,
		resource_id UUID,
		old_values TEXT,
		new_values TEXT,
		ip_address VARCHAR(45),
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(20),
		gstin VARCHAR(15) UNIQUE,
		pan VARCHAR(10),
		address TEXT,
		city VARCHAR(100),
		state VARCHAR(100),
		pincode VARCHAR(10),
		assigned_user_id UUID REFERENCES users(id),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chart_of_accounts (
		id UUID PRIMARY KEY,
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		account_type VARCHAR(50) NOT NULL,
		parent_id UUID REFERENCES chart_of_accounts(id),
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS general_ledger (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES chart_of_accounts(id),
		transaction_id VARCHAR(100) NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		description TEXT,
		debit_amount NUMERIC(15,2) NOT NULL DEFAULT 0,
		credit_amount NUMERIC(15,2) NOT NULL DEFAULT 0,
		balance NUMERIC(15,2) NOT NULL DEFAULT 0,
		reference VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		invoice_number VARCHAR(100) NOT NULL UNIQUE,
		client_id UUID NOT NULL REFERENCES clients(id),
		issue_date TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		subtotal NUMERIC(15,2) NOT NULL,
		tax_amount NUMERIC(15,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(15,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id UUID PRIMARY KEY,
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		quantity NUMERIC(10,2) NOT NULL,
		unit_price NUMERIC(15,2) NOT NULL,
		total_price NUMERIC(15,2) NOT NULL,
		tax_rate NUMERIC(5,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		invoice_id UUID NOT NULL REFERENCES invoices(id),
		amount NUMERIC(15,2) NOT NULL,
		payment_date TIMESTAMPTZ NOT NULL,
		payment_method VARCHAR(50) NOT NULL,
		reference VARCHAR(100),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bank_reconciliations (
		id UUID PRIMARY KEY,
		bank_account_id UUID NOT NULL REFERENCES chart_of_accounts(id),
		statement_date TIMESTAMPTZ NOT NULL,
		opening_balance NUMERIC(15,2) NOT NULL,
		closing_balance NUMERIC(15,2) NOT NULL,
		is_reconciled BOOLEAN NOT NULL DEFAULT false,
		reconciled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		client_id UUID NOT NULL REFERENCES clients(id),
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		budget NUMERIC(15,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		project_id UUID REFERENCES projects(id),
		assigned_to UUID REFERENCES users(id),
		priority VARCHAR(10) NOT NULL DEFAULT 'medium',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		due_date TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		estimated_hours NUMERIC(5,2),
		actual_hours NUMERIC(5,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS compliances (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(10) NOT NULL,
		client_id UUID NOT NULL REFERENCES clients(id),
		due_date TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		description TEXT,
		assigned_to UUID REFERENCES users(id),
		completed_at TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS gst_returns (
		id UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients(id),
		return_type VARCHAR(20) NOT NULL,
		tax_period VARCHAR(20) NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		filing_date TIMESTAMPTZ,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_tax_liability NUMERIC(15,2) NOT NULL DEFAULT 0,
		total_tax_paid NUMERIC(15,2) NOT NULL DEFAULT 0,
		penalty_amount NUMERIC(15,2) NOT NULL DEFAULT 0,
		acknowledgment_number VARCHAR(50),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tds_returns (
		id UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients(id),
		form_type VARCHAR(10) NOT NULL,
		quarter VARCHAR(10) NOT NULL,
		financial_year VARCHAR(10) NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		filing_date TIMESTAMPTZ,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_tds_deducted NUMERIC(15,2) NOT NULL DEFAULT 0,
		total_tds_deposited NUMERIC(15,2) NOT NULL DEFAULT 0,
		acknowledgment_number VARCHAR(50),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		original_filename VARCHAR(255) NOT NULL,
		file_path VARCHAR(500) NOT NULL,
		file_size BIGINT NOT NULL,
		mime_type VARCHAR(100) NOT NULL,
		client_id UUID REFERENCES clients(id),
		project_id UUID REFERENCES projects(id),
		task_id UUID REFERENCES tasks(id),
		uploaded_by UUID NOT NULL REFERENCES users(id),
		is_processed BOOLEAN NOT NULL DEFAULT false,
		extracted_data TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS time_entries (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		project_id UUID REFERENCES projects(id),
		task_id UUID REFERENCES tasks(id),
		client_id UUID REFERENCES clients(id),
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		duration_hours NUMERIC(5,2),
		description TEXT,
		is_billable BOOLEAN NOT NULL DEFAULT true,
		hourly_rate NUMERIC(10,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		key VARCHAR(100) PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments(invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_account_date ON general_ledger(account_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_compliances_due ON compliances(status, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_user ON time_entries(user_id)`,
}

// Migrate applies the schema. Safe to run on every startup; every statement
// is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
