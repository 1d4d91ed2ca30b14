package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"shop-analytics/pkg/logging"
	"shop-analytics/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// exportColumns maps the order table columns to export headers, in select order.
var exportColumns = []struct {
	column string
	field  string
}{
	{"name", models.FieldName},
	{"email", models.FieldEmail},
	{"shipping_country", models.FieldShippingCountry},
	{"created_at", models.FieldCreatedAt},
	{"total", models.FieldTotal},
	{"subtotal", models.FieldSubtotal},
	{"discount_amount", models.FieldDiscount},
	{"refunded_amount", models.FieldRefunded},
	{"financial_status", models.FieldFinancialStatus},
	{"tags", models.FieldTags},
	{"lineitem_name", models.FieldLineitemName},
}

// Open DSN mariadb:// or mysql:// → MySQL driver format
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=false&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// RedactDSN hides the password of a driver DSN for logging.
func RedactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	colon := strings.Index(dsn, ":")
	if at < 0 || colon < 0 || colon > at {
		return dsn
	}
	return dsn[:colon+1] + "***" + dsn[at:]
}

// LoadOrderRows reads a table mirroring the order export, one row per line
// item, in insertion order. Values come back as export-style strings so the
// rows go through the same normalization as CSV input.
func LoadOrderRows(ctx context.Context, db *sql.DB, tableName string, logger *slog.Logger, verbose bool) ([]models.RawRow, error) {
	if !tableNameRe.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	cols := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		cols[i] = c.column
	}

	var count int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %s: %w", tableName, err)
	}
	if logger != nil {
		logger.Debug("loading order rows", "table", tableName, "rows", count)
	}

	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(cols, ", "), tableName)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bar := logging.NewProgress(int(count), "loading orders", verbose)
	out := make([]models.RawRow, 0, count)
	for rows.Next() {
		vals := make([]sql.NullString, len(exportColumns))
		dest := make([]any, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, toRawRow(vals))
		_ = bar.Add(1)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// toRawRow keys scanned columns by export header; NULL becomes empty.
func toRawRow(vals []sql.NullString) models.RawRow {
	row := make(models.RawRow, len(exportColumns))
	for i, c := range exportColumns {
		if i < len(vals) && vals[i].Valid {
			row[c.field] = vals[i].String
		} else {
			row[c.field] = ""
		}
	}
	return row
}
