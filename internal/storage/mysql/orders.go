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

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO orders (customer_id, commodity_id, side, status, price, quantity, filled_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.CustomerID, order.CommodityID, order.Side, order.Status,
		order.Price, order.Quantity, order.FilledQuantity, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order: read id: %w", err)
	}
	order.ID = id
	return nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	_, err := s.q.ExecContext(ctx, `
		UPDATE orders SET status = ?, filled_quantity = ?, updated_at = ? WHERE id = ?`,
		order.Status, order.FilledQuantity, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	return nil
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.CustomerID, &o.CommodityID, &o.Side, &o.Status,
		&o.Price, &o.Quantity, &o.FilledQuantity, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

const orderColumns = `id, customer_id, commodity_id, side, status, price, quantity, filled_quantity, created_at, updated_at`

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

func (s *Store) QueryResting(ctx context.Context, commodityID int64, side models.OrderSide, direction storage.SortDirection) ([]*models.Order, error) {
	order := "ASC"
	if direction == storage.Descending {
		order = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE commodity_id = ? AND side = ? AND status IN ('open', 'partial')
		ORDER BY price %s, created_at ASC, id ASC`, orderColumns, order)

	rows, err := s.q.QueryContext(ctx, query, commodityID, side)
	if err != nil {
		return nil, fmt.Errorf("query resting orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = ? ORDER BY created_at ASC, id ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders by customer: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
