package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage"
)

func (s *Store) InsertCommodity(ctx context.Context, c *models.Commodity) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO commodities (name, symbol, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Symbol, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert commodity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert commodity: read id: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) GetCommodity(ctx context.Context, id int64) (*models.Commodity, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, symbol, description, created_at, updated_at FROM commodities WHERE id = ?`, id)

	var c models.Commodity
	if err := row.Scan(&c.ID, &c.Name, &c.Symbol, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get commodity: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name, symbol, description, created_at, updated_at FROM commodities ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list commodities: %w", err)
	}
	defer rows.Close()

	var commodities []models.Commodity
	for rows.Next() {
		var c models.Commodity
		if err := rows.Scan(&c.ID, &c.Name, &c.Symbol, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan commodity: %w", err)
		}
		commodities = append(commodities, c)
	}
	return commodities, rows.Err()
}
