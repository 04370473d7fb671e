package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage"

	"github.com/go-sql-driver/mysql"
)

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func (s *Store) InsertCustomer(ctx context.Context, customer *models.Customer) error {
	now := time.Now()
	customer.CreatedAt, customer.UpdatedAt = now, now

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO customers (name, email, api_key, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		customer.Name, customer.Email, customer.APIKey, customer.PasswordHash, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert customer: read id: %w", err)
	}
	customer.ID = id
	return nil
}

func scanCustomer(row interface{ Scan(...interface{}) error }) (*models.Customer, error) {
	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.APIKey, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

const customerColumns = `id, name, email, api_key, password_hash, created_at, updated_at`

func (s *Store) GetCustomerByAPIKey(ctx context.Context, apiKey string) (*models.Customer, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE api_key = ?`, apiKey)
	return scanCustomer(row)
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = ?`, email)
	return scanCustomer(row)
}
