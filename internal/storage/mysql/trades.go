package mysql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orderbook-engine/internal/models"
)

func (s *Store) InsertTrade(ctx context.Context, trade *models.Trade) error {
	trade.ExecutedAt = time.Now()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO trades (commodity_id, order_id, counterparty_order_id, price, quantity, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		trade.CommodityID, trade.OrderID, trade.CounterpartyOrderID, trade.Price, trade.Quantity, trade.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert trade: read id: %w", err)
	}
	trade.ID = id
	return nil
}

func (s *Store) ListTradesByOrderIDs(ctx context.Context, orderIDs []int64) ([]models.Trade, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]interface{}, 0, len(orderIDs)*2)
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	inClause := strings.Join(placeholders, ", ")
	for _, id := range orderIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT id, commodity_id, order_id, counterparty_order_id, price, quantity, executed_at
		FROM trades
		WHERE order_id IN (%s) OR counterparty_order_id IN (%s)
		ORDER BY executed_at ASC, id ASC`, inClause, inClause)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.CommodityID, &t.OrderID, &t.CounterpartyOrderID, &t.Price, &t.Quantity, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
