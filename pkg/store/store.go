// Package store keeps snapshots of computed result tables in SQLite so the
// reporting front end can read past runs. Runs never read it back: every run
// recomputes from its inputs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shop-analytics/pkg/models"
)

// Store provides SQLite access to result snapshots.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// RunSummary describes one stored run.
type RunSummary struct {
	ID          string
	GeneratedAt time.Time
	RowsRead    int
	ValidOrders int
	Warnings    []string
}

// NewStore opens (or creates) the database and applies pending migrations.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult writes every table of a run in one transaction.
func (s *Store) SaveResult(ctx context.Context, res *models.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, generated_at, rows_read, unique_orders, excluded_orders, valid_orders, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.GeneratedAt, res.Stats.RowsRead, res.Stats.UniqueOrders,
		res.Stats.ExcludedOrders, res.Stats.ValidOrders, strings.Join(res.Warnings, "\n"),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, *models.Result) error
	}{
		{"monthly", saveMonthly},
		{"kpis", saveKPIs},
		{"cohorts", saveCohorts},
		{"funnel", saveFunnel},
		{"channels", saveChannels},
		{"interest", saveInterest},
	}
	for _, st := range steps {
		if err = st.fn(ctx, tx, res); err != nil {
			return fmt.Errorf("save %s: %w", st.name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("snapshot saved", "run", res.RunID)
	}
	return nil
}

func saveMonthly(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO monthly_buckets
		(run_id, market, month, gross, net, orders, new_customers, returning_customers,
		 discounts, refunds, subscription, one_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, market := range sortedKeys(res.Monthly) {
		for _, b := range res.Monthly[market] {
			if _, err := stmt.ExecContext(ctx, res.RunID, market, b.Month, b.Gross, b.Net, b.Orders,
				b.NewCustomers, b.ReturningCustomers, b.Discounts, b.Refunds, b.Subscription, b.OneTime); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveKPIs(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	for _, market := range sortedKeys(res.KPIs) {
		k := res.KPIs[market]
		if _, err := tx.ExecContext(ctx, `INSERT INTO market_kpis
			(run_id, market, name, gross, net, orders, aov, returning_rate, discount_rate, refund_rate, subscription, one_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, market, k.Name, k.Gross, k.Net, k.Orders, k.AOV, k.ReturningRate,
			k.DiscountRate, k.RefundRate, k.Subscription, k.OneTime); err != nil {
			return err
		}
	}
	return nil
}

func saveCohorts(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cohort_cells
		(run_id, kind, cohort_key, cohort, offset_index, revenue, orders)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, market := range sortedKeys(res.MarketCohorts) {
		for _, row := range res.MarketCohorts[market] {
			for off := 0; off < models.CohortOffsets; off++ {
				if row.Orders[off] == 0 && row.Revenue[off] == 0 {
					continue
				}
				if _, err := stmt.ExecContext(ctx, res.RunID, "market", market, row.Cohort, off, row.Revenue[off], row.Orders[off]); err != nil {
					return err
				}
			}
		}
	}
	for _, pc := range res.ProductCohorts {
		for off := 0; off < models.CohortOffsets; off++ {
			if pc.Orders[off] == 0 && pc.Revenue[off] == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, res.RunID, "product", pc.Group, "", off, pc.Revenue[off], pc.Orders[off]); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveFunnel(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	for _, market := range sortedKeys(res.Funnel) {
		for i, n := range res.Funnel[market] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO retention_funnel (run_id, market, depth, customers) VALUES (?, ?, ?, ?)`,
				res.RunID, market, i+1, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveChannels(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	for _, w := range res.ChannelWeeks {
		for _, ch := range models.Channels {
			c := w.Channels[ch]
			if _, err := tx.ExecContext(ctx, `INSERT INTO channel_weeks
				(run_id, week, channel, orders, revenue, sessions, completions, cvr)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, w.Week, ch, c.Orders, c.Revenue, c.Sessions, c.Completions, c.CVR); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveInterest(ctx context.Context, tx *sql.Tx, res *models.Result) error {
	for _, pi := range res.Interest {
		for _, c := range pi.Weeks {
			var rate sql.NullFloat64
			if c.CartRate != nil {
				rate = sql.NullFloat64{Float64: *c.CartRate, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO product_interest
				(run_id, product_group, week, sessions, cart_adds, cart_rate)
				VALUES (?, ?, ?, ?, ?, ?)`,
				res.RunID, pi.Group, c.Week, c.Sessions, c.CartAdds, rate); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, rows_read, valid_orders, warnings FROM runs ORDER BY generated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var warnings sql.NullString
		if err := rows.Scan(&r.ID, &r.GeneratedAt, &r.RowsRead, &r.ValidOrders, &warnings); err != nil {
			return nil, err
		}
		if warnings.Valid && warnings.String != "" {
			r.Warnings = strings.Split(warnings.String, "\n")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadMonthly returns the monthly buckets of one market of a run, by month.
func (s *Store) LoadMonthly(ctx context.Context, runID, market string) ([]models.MonthlyBucket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month, gross, net, orders, new_customers, returning_customers,
		discounts, refunds, subscription, one_time
		FROM monthly_buckets WHERE run_id = ? AND market = ? ORDER BY month`, runID, market)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MonthlyBucket
	for rows.Next() {
		var b models.MonthlyBucket
		if err := rows.Scan(&b.Month, &b.Gross, &b.Net, &b.Orders, &b.NewCustomers, &b.ReturningCustomers,
			&b.Discounts, &b.Refunds, &b.Subscription, &b.OneTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LoadInterest returns the weekly cells of one product group of a run.
func (s *Store) LoadInterest(ctx context.Context, runID, group string) ([]models.InterestCell, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT week, sessions, cart_adds, cart_rate
		FROM product_interest WHERE run_id = ? AND product_group = ? ORDER BY week`, runID, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InterestCell
	for rows.Next() {
		var c models.InterestCell
		var rate sql.NullFloat64
		if err := rows.Scan(&c.Week, &c.Sessions, &c.CartAdds, &rate); err != nil {
			return nil, err
		}
		if rate.Valid {
			v := rate.Float64
			c.CartRate = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
