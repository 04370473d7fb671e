// Package mysql is the concrete adapter for storage.Store, backed by MySQL
// via database/sql: DSN/URI handling and connection-pool tuning, reshaped
// behind the storage.Store interface so the engine never imports
// database/sql directly.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"orderbook-engine/internal/storage"

	_ "github.com/go-sql-driver/mysql"
)

// convertURIToDSN converts a mysql:// URI into the go-sql-driver DSN form.
// Connection strings that are already a DSN pass through unchanged.
func convertURIToDSN(connectionString string) (string, error) {
	if !strings.HasPrefix(connectionString, "mysql://") {
		return connectionString, nil
	}

	u, err := url.Parse(connectionString)
	if err != nil {
		return "", fmt.Errorf("failed to parse URI: %w", err)
	}
	if u.Scheme != "mysql" {
		return "", fmt.Errorf("unsupported scheme: %s (expected mysql)", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("host is required")
	}

	var userInfo string
	if u.User != nil {
		username := u.User.Username()
		password, _ := u.User.Password()
		if password != "" {
			userInfo = username + ":" + password
		} else {
			userInfo = username
		}
	}

	database := strings.TrimPrefix(u.Path, "/")
	if database == "" {
		database = "orderbook"
	}

	dsn := fmt.Sprintf("%s@tcp(%s)/%s", userInfo, u.Host, database)

	defaultParams := url.Values{
		"parseTime": []string{"true"},
		"charset":   []string{"utf8mb4"},
		"collation": []string{"utf8mb4_unicode_ci"},
	}
	existingParams := u.Query()
	for key, values := range defaultParams {
		if !existingParams.Has(key) {
			existingParams[key] = values
		}
	}
	if len(existingParams) > 0 {
		dsn += "?" + existingParams.Encode()
	}
	return dsn, nil
}

// Connect opens a pooled connection using the given DATABASE_URL (a mysql://
// URI or a raw DSN), pings it, and tunes the pool.
func Connect(ctx context.Context, connectionString string) (*sql.DB, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	dsn, err := convertURIToDSN(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to process connection string: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	return db, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting Store methods
// run identically whether or not they're inside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store implements storage.Store over MySQL.
type Store struct {
	db *sql.DB
	q  querier
}

// New wraps a *sql.DB as a storage.Store.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

var _ storage.Store = (*Store)(nil)
