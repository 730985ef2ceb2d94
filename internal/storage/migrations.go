package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial estimate graph schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS estimates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					project_name TEXT NOT NULL,
					client_name TEXT,
					base_currency TEXT NOT NULL,
					overhead_pct REAL NOT NULL DEFAULT 0,
					profit_pct REAL NOT NULL DEFAULT 0,
					subtotal REAL NOT NULL DEFAULT 0,
					grand_total REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS tasks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					estimate_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					description TEXT NOT NULL,
					FOREIGN KEY (estimate_id) REFERENCES estimates(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_tasks_estimate ON tasks(estimate_id)`,
				`CREATE TABLE IF NOT EXISTS line_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					task_id INTEGER NOT NULL,
					kind TEXT NOT NULL,
					position INTEGER NOT NULL,
					name TEXT NOT NULL,
					quantity REAL NOT NULL DEFAULT 0,
					unit TEXT,
					unit_price REAL NOT NULL DEFAULT 0,
					currency TEXT,
					formula TEXT,
					FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_line_items_task ON line_items(task_id)`,
				`CREATE INDEX idx_line_items_resource ON line_items(kind, name)`,
				`CREATE TABLE IF NOT EXISTS exchange_rates (
					estimate_id INTEGER NOT NULL,
					currency TEXT NOT NULL,
					rate REAL NOT NULL,
					operator TEXT NOT NULL,
					effective_date DATETIME,
					PRIMARY KEY (estimate_id, currency),
					FOREIGN KEY (estimate_id) REFERENCES estimates(id) ON DELETE CASCADE
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add rate library metadata and sub-rates",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE estimates ADD COLUMN rate_code TEXT`,
				`ALTER TABLE estimates ADD COLUMN unit TEXT`,
				`ALTER TABLE estimates ADD COLUMN category TEXT`,
				`ALTER TABLE estimates ADD COLUMN rate_type TEXT`,
				`ALTER TABLE estimates ADD COLUMN adjustment REAL NOT NULL DEFAULT 0`,
				`ALTER TABLE estimates ADD COLUMN notes TEXT`,
				// Concurrent allocators race to the same next code; the unique
				// index makes the loser re-read and retry.
				`CREATE UNIQUE INDEX idx_estimates_rate_code ON estimates(rate_code) WHERE rate_code IS NOT NULL AND rate_code != ''`,
				// Embedded sub-estimates are deep-copied snapshots, stored as
				// a JSON document rather than joined rows so library edits
				// can never reach them implicitly.
				`CREATE TABLE IF NOT EXISTS sub_rates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					estimate_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					quantity REAL NOT NULL DEFAULT 1,
					converted_unit TEXT,
					formula TEXT,
					source_estimate_id INTEGER,
					source_rate_code TEXT,
					embedded TEXT NOT NULL,
					FOREIGN KEY (estimate_id) REFERENCES estimates(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_sub_rates_estimate ON sub_rates(estimate_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add global price list",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS price_list (
					kind TEXT NOT NULL,
					name TEXT NOT NULL,
					unit_price REAL NOT NULL DEFAULT 0,
					currency TEXT,
					unit TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (kind, name)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	current := 0
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to rollback migration", "version", migration.Version, "error", rbErr)
			}
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_versions (version, description) VALUES (?, ?)`,
			migration.Version, migration.Description); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to rollback migration", "version", migration.Version, "error", rbErr)
			}
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration", "version", migration.Version, "description", migration.Description)
	}

	return nil
}
