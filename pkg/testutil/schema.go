package testutil

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Schema is the stock service DDL applied to test databases. It mirrors
// the production migrations, including the constraints and partial indexes
// the repositories rely on.
const Schema = `
	CREATE TABLE IF NOT EXISTS hotels (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY,
		hotel_id UUID NOT NULL REFERENCES hotels(id),
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		hotel_id UUID NOT NULL REFERENCES hotels(id),
		name TEXT NOT NULL,
		category TEXT,
		unit TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS batches (
		id UUID PRIMARY KEY,
		hotel_id UUID NOT NULL REFERENCES hotels(id),
		department_id UUID NOT NULL REFERENCES departments(id),
		product_id UUID NOT NULL REFERENCES products(id),
		quantity INTEGER,
		expiry_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		added_by TEXT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		collected_at TIMESTAMPTZ,
		collected_by TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT batches_quantity_non_negative CHECK (quantity IS NULL OR quantity >= 0),
		CONSTRAINT batches_status_valid CHECK (status IN ('active', 'collected'))
	);

	CREATE INDEX IF NOT EXISTS batches_depletion_order
		ON batches (hotel_id, department_id, product_id, expiry_date, added_at)
		WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS write_offs (
		id UUID PRIMARY KEY,
		hotel_id UUID NOT NULL REFERENCES hotels(id),
		department_id UUID NOT NULL REFERENCES departments(id),
		batch_id UUID NOT NULL REFERENCES batches(id),
		product_id UUID NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		reason TEXT NOT NULL,
		comment TEXT,
		performed_by TEXT NOT NULL,
		performed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT write_off_quantity_positive CHECK (quantity > 0),
		CONSTRAINT write_offs_reason_valid CHECK (reason IN ('consumption', 'sale', 'damaged', 'expired', 'other'))
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		hotel_id UUID NOT NULL REFERENCES hotels(id),
		department_id UUID REFERENCES departments(id),
		batch_id UUID REFERENCES batches(id),
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		local_day DATE NOT NULL,
		delivery_results JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS notifications_dedup
		ON notifications (hotel_id, batch_id, type, local_day)
		WHERE batch_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT NOT NULL,
		scope TEXT NOT NULL,
		scope_id TEXT,
		value TEXT NOT NULL,
		updated_by TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT settings_scope_valid CHECK (scope IN ('system', 'hotel', 'department', 'user'))
	);

	CREATE UNIQUE INDEX IF NOT EXISTS settings_key_scope
		ON settings (key, scope, COALESCE(scope_id, ''));
`

// tables in dependency order for truncation
var tables = []string{
	"settings",
	"notifications",
	"write_offs",
	"batches",
	"products",
	"departments",
	"hotels",
}

// ApplySchema creates the stock service tables in the test database
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

// TruncateAll empties every stock service table
func TruncateAll(ctx context.Context, db *sqlx.DB) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
