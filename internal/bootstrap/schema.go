// Package bootstrap creates the persisted schema the engine and API surface
// depend on. The engine never imports it; only cmd/server does, at startup.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id            BIGINT AUTO_INCREMENT PRIMARY KEY,
	name          VARCHAR(255) NOT NULL,
	email         VARCHAR(255) NOT NULL UNIQUE,
	api_key       VARCHAR(64)  NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS commodities (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	name        VARCHAR(100) NOT NULL UNIQUE,
	symbol      VARCHAR(10)  NOT NULL UNIQUE,
	description VARCHAR(255) NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id              BIGINT AUTO_INCREMENT PRIMARY KEY,
	customer_id     BIGINT NOT NULL,
	commodity_id    BIGINT NOT NULL,
	side            VARCHAR(4)  NOT NULL,
	status          VARCHAR(10) NOT NULL,
	price           DECIMAL(20,8) NOT NULL,
	quantity        DECIMAL(20,8) NOT NULL,
	filled_quantity DECIMAL(20,8) NOT NULL,
	created_at      DATETIME(6) NOT NULL,
	updated_at      DATETIME(6) NOT NULL,
	INDEX idx_orders_commodity_side_status (commodity_id, side, status),
	INDEX idx_orders_customer (customer_id)
);

CREATE TABLE IF NOT EXISTS trades (
	id                     BIGINT AUTO_INCREMENT PRIMARY KEY,
	commodity_id           BIGINT NOT NULL,
	order_id               BIGINT NOT NULL,
	counterparty_order_id  BIGINT NOT NULL,
	price                  DECIMAL(20,8) NOT NULL,
	quantity               DECIMAL(20,8) NOT NULL,
	executed_at            DATETIME(6) NOT NULL,
	INDEX idx_trades_order (order_id),
	INDEX idx_trades_counterparty (counterparty_order_id)
);
`

// EnsureSchema creates every table the engine and API surface require if it
// does not already exist, with unique constraints on customer.email,
// customer.api_key, commodity.name and commodity.symbol.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// splitStatements breaks the schema block into individual statements; the
// driver does not support multi-statement Exec without opting in, so each
// CREATE TABLE runs on its own.
func splitStatements(block string) []string {
	var stmts []string
	var current []byte
	for i := 0; i < len(block); i++ {
		c := block[i]
		current = append(current, c)
		if c == ';' {
			stmts = append(stmts, string(current))
			current = nil
		}
	}
	return stmts
}
