// Package engine implements the matching engine: per-commodity order books,
// the price-time-priority matching algorithm, the order lifecycle state
// machine, cancellation, and depth aggregation.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage"

	"github.com/shopspring/decimal"
)

// Engine is the sole mutator of order status, filled quantity and trades.
// It serializes submissions and cancellations per commodity and persists
// every multi-write operation inside a single storage.Store transaction.
type Engine struct {
	store   storage.Store
	matcher *matcher

	mu    sync.RWMutex // guards books and locks maps themselves
	books map[int64]*Book
	locks map[int64]*sync.Mutex
}

// NewEngine constructs an Engine over the given persistence port.
func NewEngine(store storage.Store) *Engine {
	return &Engine{
		store:   store,
		matcher: newMatcher(),
		books:   make(map[int64]*Book),
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) bookFor(commodityID int64) *Book {
	e.mu.RLock()
	b, ok := e.books[commodityID]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[commodityID]; ok {
		return b
	}
	b = NewBook(commodityID)
	e.books[commodityID] = b
	return b
}

func (e *Engine) lockFor(commodityID int64) *sync.Mutex {
	e.mu.RLock()
	l, ok := e.locks[commodityID]
	e.mu.RUnlock()
	if ok {
		return l
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok = e.locks[commodityID]; ok {
		return l
	}
	l = &sync.Mutex{}
	e.locks[commodityID] = l
	return l
}

// LoadRestingOrders rebuilds every commodity's in-memory book from
// persisted resting orders. Call once at startup before serving requests,
// so the in-memory book view agrees with what was last persisted.
func (e *Engine) LoadRestingOrders(ctx context.Context, commodityIDs []int64) error {
	loaded := 0
	for _, commodityID := range commodityIDs {
		book := e.bookFor(commodityID)
		for _, side := range []models.OrderSide{models.OrderSideBuy, models.OrderSideSell} {
			orders, err := e.store.QueryResting(ctx, commodityID, side, storage.Ascending)
			if err != nil {
				return fmt.Errorf("load resting orders: %w", err)
			}
			for _, o := range orders {
				book.AddOrder(o)
				loaded++
			}
		}
	}
	log.Printf("[INFO] loaded %d resting orders into order books", loaded)
	return nil
}

// Submit validates, persists and matches a newly constructed order against
// the resting book for its commodity, returning the updated aggressor and
// any trades executed.
//
// Preconditions (side/price/quantity validated, filled_quantity=0,
// status=OPEN) are the caller's responsibility; Submit still rejects
// non-positive price/quantity defensively so the engine's own invariants
// never depend on caller discipline.
func (e *Engine) Submit(ctx context.Context, order *models.Order) (*models.Order, []models.Trade, error) {
	const op = "engine.Submit"

	if order.Side != models.OrderSideBuy && order.Side != models.OrderSideSell {
		return nil, nil, invalidArgument(op, "unknown side %q", order.Side)
	}
	if !order.Price.IsPositive() {
		return nil, nil, invalidArgument(op, "price must be positive")
	}
	if !order.Quantity.IsPositive() {
		return nil, nil, invalidArgument(op, "quantity must be positive")
	}

	if _, err := e.store.GetCommodity(ctx, order.CommodityID); err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, notFound(op, "commodity %d not found", order.CommodityID)
		}
		return nil, nil, internal(op, err)
	}

	order.Status = models.OrderStatusOpen
	order.FilledQuantity = decimal.Zero

	lock := e.lockFor(order.CommodityID)
	lock.Lock()
	defer lock.Unlock()

	book := e.bookFor(order.CommodityID)

	var result *MatchResult

	err := e.store.Tx(ctx, func(tx storage.Store) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		result = e.matcher.match(order, book)

		for i := range result.Trades {
			if err := tx.InsertTrade(ctx, &result.Trades[i]); err != nil {
				return err
			}
		}
		for _, updated := range result.Resting {
			if err := tx.UpdateOrder(ctx, updated); err != nil {
				return err
			}
		}
		return tx.UpdateOrder(ctx, result.Aggressor)
	})
	if err != nil {
		return nil, nil, internal(op, err)
	}

	// The transaction is durable; now reconcile the in-memory book. A failed
	// commit above leaves the book exactly as it was.
	for _, updated := range result.Resting {
		book.ApplyFill(updated)
	}
	if result.Aggressor.Resting() {
		book.AddOrder(result.Aggressor)
	}

	final := *result.Aggressor
	return &final, result.Trades, nil
}

// Cancel transitions an OPEN or PARTIAL order to CANCELLED. Cancelling an
// already-terminal order is idempotent: it returns the unchanged order with
// no error.
func (e *Engine) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	const op = "engine.Cancel"

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, notFound(op, "order %d not found", orderID)
		}
		return nil, internal(op, err)
	}

	if !order.Resting() {
		return order, nil
	}

	lock := e.lockFor(order.CommodityID)
	lock.Lock()
	defer lock.Unlock()

	err = e.store.Tx(ctx, func(tx storage.Store) error {
		current, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !current.Resting() {
			order = current
			return nil
		}
		current.Status = models.OrderStatusCancelled
		if err := tx.UpdateOrder(ctx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, internal(op, err)
	}

	e.bookFor(order.CommodityID).RemoveOrder(order.ID, order.Side, order.Price)
	return order, nil
}

// GetOrder is a passthrough to the persistence port.
func (e *Engine) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, notFound("engine.GetOrder", "order %d not found", orderID)
		}
		return nil, internal("engine.GetOrder", err)
	}
	return order, nil
}

// Depth returns the aggregated resting-book snapshot for a commodity.
func (e *Engine) Depth(commodityID int64) models.Depth {
	bids, asks := e.bookFor(commodityID).Depth()
	return models.Depth{CommodityID: commodityID, Bids: bids, Asks: asks}
}
