package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables on startup. Every row is namespaced by tenant_id.
const schema = `
CREATE TABLE IF NOT EXISTS shifts (
    tenant_id TEXT NOT NULL,
    id TEXT NOT NULL,
    volunteer_name TEXT NOT NULL,
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE TABLE IF NOT EXISTS volunteers (
    tenant_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE TABLE IF NOT EXISTS status (
    tenant_id TEXT PRIMARY KEY,
    is_open INTEGER NOT NULL DEFAULT 0,
    note TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_shifts_tenant_date ON shifts(tenant_id, date, start_time);
`

func runMigrations(ctx context.Context, sqlDB *sql.DB) error {
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
