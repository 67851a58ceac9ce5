package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// CreateSpecsTable is the schema of the openapi_specs table.
const CreateSpecsTable = `
	CREATE TABLE IF NOT EXISTS openapi_specs (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		title VARCHAR(500),
		version VARCHAR(100),
		spec_content TEXT NOT NULL,
		file_format VARCHAR(10) DEFAULT 'json',
		file_size INTEGER,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP(6) DEFAULT NOW(),
		updated_at TIMESTAMP(6) DEFAULT NOW()
	)`

// CreateActiveIndex speeds up the --active listing.
const CreateActiveIndex = `CREATE INDEX IF NOT EXISTS idx_openapi_specs_is_active ON openapi_specs(is_active)`

// DropSpecsTable removes the openapi_specs table.
const DropSpecsTable = `DROP TABLE IF EXISTS openapi_specs CASCADE`

type migration struct {
	name string
	stmt string
}

// migrations run in order on every start; each statement is idempotent.
var migrations = []migration{
	{name: "create openapi_specs", stmt: CreateSpecsTable},
	{name: "index openapi_specs.is_active", stmt: CreateActiveIndex},
}

// RunMigrations creates the openapi_specs table and its index when missing.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for _, m := range migrations {
		logger.Debug("Applying migration", zap.String("migration", m.name))
		if _, err := db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.name, err)
		}
	}
	logger.Info("Database migrations completed", zap.Int("applied", len(migrations)))
	return nil
}

// DropTables drops the openapi_specs table. Used by tests and resets.
func DropTables(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, DropSpecsTable); err != nil {
		return fmt.Errorf("failed to drop openapi_specs table: %w", err)
	}
	return nil
}
