// Package models defines the persistent entities of the order book: customers,
// commodities, orders and trades, plus the request/response DTOs the API
// surface exchanges with callers.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer is opaque to the matching engine; it exists only so the API
// surface can authorize and attribute orders to a caller.
type Customer struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	APIKey       string    `json:"api_key,omitempty" db:"api_key"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Commodity is static reference data: the tradable instrument.
type Commodity struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Symbol      string    `json:"symbol" db:"symbol"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Order is a resting or historical limit order. FilledQuantity never
// exceeds Quantity; Status is always consistent with the fill level.
type Order struct {
	ID             int64           `json:"id" db:"id"`
	CustomerID     int64           `json:"customer_id" db:"customer_id"`
	CommodityID    int64           `json:"commodity_id" db:"commodity_id"`
	Side           OrderSide       `json:"side" db:"side"`
	Status         OrderStatus     `json:"status" db:"status"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Quantity       decimal.Decimal `json:"quantity" db:"quantity"`
	FilledQuantity decimal.Decimal `json:"filled_quantity" db:"filled_quantity"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Remaining returns the unfilled quantity of the order.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Resting reports whether the order still participates in matching.
func (o *Order) Resting() bool {
	return o.Status == OrderStatusOpen || o.Status == OrderStatusPartial
}

// Trade is an immutable, insert-only record of an execution between an
// aggressor order and a resting counterparty.
type Trade struct {
	ID                  int64           `json:"id" db:"id"`
	CommodityID         int64           `json:"commodity_id" db:"commodity_id"`
	OrderID             int64           `json:"order_id" db:"order_id"`
	CounterpartyOrderID int64           `json:"counterparty_order_id" db:"counterparty_order_id"`
	Price               decimal.Decimal `json:"price" db:"price"`
	Quantity            decimal.Decimal `json:"quantity" db:"quantity"`
	ExecutedAt          time.Time       `json:"executed_at" db:"executed_at"`
}

// Level is one aggregated price level of a depth snapshot.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Depth is the aggregated resting-book snapshot for one commodity.
type Depth struct {
	CommodityID int64   `json:"commodity_id"`
	Bids        []Level `json:"bids"`
	Asks        []Level `json:"asks"`
}

// CreateCustomerRequest is the JSON payload for POST /api/customers.
type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON payload for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateCommodityRequest is the JSON payload for POST /api/commodities.
type CreateCommodityRequest struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description *string `json:"description,omitempty"`
}

// CreateOrderRequest is the JSON payload for POST /api/orders. It carries no
// customer id; the order is always attributed to the authenticated caller.
type CreateOrderRequest struct {
	CommodityID int64           `json:"commodity_id"`
	Side        OrderSide       `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateOrderResponse is returned from a successful order submission.
type CreateOrderResponse struct {
	Order  *Order  `json:"order"`
	Trades []Trade `json:"trades"`
}
