package store

import (
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{Version: 1, Name: "initial_schema", Up: migration001InitialSchema},
	{Version: 2, Name: "add_channel_and_interest_tables", Up: migration002ChannelInterest},
}

func (s *Store) runMigrations() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range allMigrations {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
		if s.logger != nil {
			s.logger.Debug("applied migration", "version", m.Version, "name", m.Name)
		}
	}
	return nil
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, q := range stmts {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func migration001InitialSchema(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE runs (
			id TEXT PRIMARY KEY,
			generated_at TIMESTAMP NOT NULL,
			rows_read INTEGER NOT NULL,
			unique_orders INTEGER NOT NULL,
			excluded_orders INTEGER NOT NULL,
			valid_orders INTEGER NOT NULL,
			warnings TEXT
		)`,
		`CREATE TABLE monthly_buckets (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			market TEXT NOT NULL,
			month TEXT NOT NULL,
			gross REAL, net REAL, orders INTEGER,
			new_customers INTEGER, returning_customers INTEGER,
			discounts REAL, refunds REAL,
			subscription INTEGER, one_time INTEGER,
			PRIMARY KEY (run_id, market, month)
		)`,
		`CREATE TABLE market_kpis (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			market TEXT NOT NULL,
			name TEXT,
			gross REAL, net REAL, orders INTEGER,
			aov REAL, returning_rate REAL, discount_rate REAL, refund_rate REAL,
			subscription INTEGER, one_time INTEGER,
			PRIMARY KEY (run_id, market)
		)`,
		`CREATE TABLE cohort_cells (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			cohort_key TEXT NOT NULL,
			cohort TEXT NOT NULL,
			offset_index INTEGER NOT NULL,
			revenue REAL, orders INTEGER,
			PRIMARY KEY (run_id, kind, cohort_key, cohort, offset_index)
		)`,
		`CREATE TABLE retention_funnel (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			market TEXT NOT NULL,
			depth INTEGER NOT NULL,
			customers INTEGER,
			PRIMARY KEY (run_id, market, depth)
		)`,
	)
}

func migration002ChannelInterest(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE channel_weeks (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			week TEXT NOT NULL,
			channel TEXT NOT NULL,
			orders INTEGER, revenue REAL,
			sessions INTEGER, completions INTEGER, cvr REAL,
			PRIMARY KEY (run_id, week, channel)
		)`,
		`CREATE TABLE product_interest (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			product_group TEXT NOT NULL,
			week TEXT NOT NULL,
			sessions INTEGER, cart_adds INTEGER,
			cart_rate REAL,
			PRIMARY KEY (run_id, product_group, week)
		)`,
	)
}
