package store

import (
	"context"
	"fmt"
)

// EnsureSchema creates every table and index the dashboard needs.
// All statements are idempotent so startup can run this every time.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			name TEXT PRIMARY KEY,
			phone TEXT,
			status TEXT NOT NULL DEFAULT 'Active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS shops (
			shop_id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			agent TEXT NOT NULL REFERENCES agents(name),
			kyc_completed_date DATE,
			status TEXT NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			import_id UUID
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shops_agent ON shops(agent)`,
		`CREATE INDEX IF NOT EXISTS idx_shops_import_id ON shops(import_id)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			imei TEXT PRIMARY KEY,
			agent TEXT NOT NULL REFERENCES agents(name),
			model TEXT NOT NULL,
			color TEXT,
			apple_id_username TEXT,
			apple_id_password TEXT,
			remarks TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			import_id UUID
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_agent ON inventory(agent)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_import_id ON inventory(import_id)`,
		`CREATE TABLE IF NOT EXISTS deposits (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			shop_id TEXT NOT NULL REFERENCES shops(shop_id),
			agent TEXT NOT NULL REFERENCES agents(name),
			deposit_date DATE NOT NULL,
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			payment TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			import_id UUID,
			UNIQUE (shop_id, deposit_date, amount, payment)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_agent ON deposits(agent)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_date ON deposits(deposit_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_import_id ON deposits(import_id)`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			shop_id TEXT NOT NULL REFERENCES shops(shop_id),
			agent TEXT NOT NULL REFERENCES agents(name),
			withdrawal_date DATE NOT NULL,
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			payment TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			import_id UUID,
			UNIQUE (shop_id, withdrawal_date, amount, payment)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_agent ON withdrawals(agent)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_date ON withdrawals(withdrawal_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_import_id ON withdrawals(import_id)`,
		`CREATE TABLE IF NOT EXISTS import_log (
			id UUID PRIMARY KEY,
			target TEXT NOT NULL,
			file_name TEXT NOT NULL DEFAULT '',
			rows_imported INTEGER NOT NULL DEFAULT 0,
			rows_duplicate INTEGER NOT NULL DEFAULT 0,
			rows_invalid INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_log_target ON import_log(target, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			action TEXT NOT NULL,
			severity TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			row_key TEXT,
			column_name TEXT,
			old_value TEXT,
			new_value TEXT,
			details JSONB,
			rows_affected INTEGER NOT NULL DEFAULT 0,
			import_id UUID,
			ip_address TEXT,
			user_agent TEXT,
			reason TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_target ON audit_log(target)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
