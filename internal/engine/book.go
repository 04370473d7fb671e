package engine

import (
	"sort"
	"sync"

	"orderbook-engine/internal/models"

	"github.com/shopspring/decimal"
)

// priceLevel is a FIFO queue of resting orders at one exact price.
type priceLevel struct {
	Price  decimal.Decimal
	Orders []*models.Order
}

func (pl *priceLevel) add(order *models.Order) {
	pl.Orders = append(pl.Orders, order)
}

// remove deletes an order by ID, preserving FIFO order of the rest.
func (pl *priceLevel) remove(orderID int64) bool {
	for i, order := range pl.Orders {
		if order.ID == orderID {
			pl.Orders = append(pl.Orders[:i], pl.Orders[i+1:]...)
			return true
		}
	}
	return false
}

func (pl *priceLevel) isEmpty() bool {
	return len(pl.Orders) == 0
}

func (pl *priceLevel) totalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, order := range pl.Orders {
		total = total.Add(order.Remaining())
	}
	return total
}

// Book is the in-memory resting-order structure for a single commodity.
// Bids and Asks are indexed by the exact decimal value of price (its
// normalized string form), giving price levels that never split due to
// binary floating point representation.
type Book struct {
	CommodityID int64

	Bids map[string]*priceLevel // keyed by price, iterated highest-first
	Asks map[string]*priceLevel // keyed by price, iterated lowest-first

	bidPrices []decimal.Decimal // cached, sorted descending
	askPrices []decimal.Decimal // cached, sorted ascending

	mutex sync.RWMutex
}

// NewBook constructs an empty book for a commodity.
func NewBook(commodityID int64) *Book {
	return &Book{
		CommodityID: commodityID,
		Bids:        make(map[string]*priceLevel),
		Asks:        make(map[string]*priceLevel),
	}
}

func priceKey(price decimal.Decimal) string {
	return price.String()
}

// AddOrder inserts a resting order into the book.
func (b *Book) AddOrder(order *models.Order) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	key := priceKey(order.Price)
	if order.Side == models.OrderSideBuy {
		if b.Bids[key] == nil {
			b.Bids[key] = &priceLevel{Price: order.Price}
		}
		b.Bids[key].add(order)
		b.refreshBidPrices()
		return
	}
	if b.Asks[key] == nil {
		b.Asks[key] = &priceLevel{Price: order.Price}
	}
	b.Asks[key].add(order)
	b.refreshAskPrices()
}

// RemoveOrder deletes a resting order from the book by ID, side and price.
func (b *Book) RemoveOrder(orderID int64, side models.OrderSide, price decimal.Decimal) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	key := priceKey(price)
	if side == models.OrderSideBuy {
		if pl := b.Bids[key]; pl != nil {
			if pl.remove(orderID) {
				if pl.isEmpty() {
					delete(b.Bids, key)
					b.refreshBidPrices()
				}
				return true
			}
		}
		return false
	}
	if pl := b.Asks[key]; pl != nil {
		if pl.remove(orderID) {
			if pl.isEmpty() {
				delete(b.Asks, key)
				b.refreshAskPrices()
			}
			return true
		}
	}
	return false
}

// crossing returns the resting orders an aggressor of the given side and
// limit price can trade against, in match order: best price first, FIFO
// within a level. The returned slice is a snapshot; the book is not changed.
func (b *Book) crossing(aggressorSide models.OrderSide, limit decimal.Decimal) []*models.Order {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	var out []*models.Order
	if aggressorSide == models.OrderSideBuy {
		for _, price := range b.askPrices {
			if price.GreaterThan(limit) {
				break
			}
			if pl := b.Asks[priceKey(price)]; pl != nil {
				out = append(out, pl.Orders...)
			}
		}
		return out
	}
	for _, price := range b.bidPrices {
		if price.LessThan(limit) {
			break
		}
		if pl := b.Bids[priceKey(price)]; pl != nil {
			out = append(out, pl.Orders...)
		}
	}
	return out
}

// ApplyFill reconciles the book with a persisted fill of a resting order:
// the stored order takes the updated quantity and status, and leaves the
// book entirely once it is no longer resting.
func (b *Book) ApplyFill(updated *models.Order) {
	if !updated.Resting() {
		b.RemoveOrder(updated.ID, updated.Side, updated.Price)
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	levels := b.Bids
	if updated.Side == models.OrderSideSell {
		levels = b.Asks
	}
	pl := levels[priceKey(updated.Price)]
	if pl == nil {
		return
	}
	for _, order := range pl.Orders {
		if order.ID == updated.ID {
			order.FilledQuantity = updated.FilledQuantity
			order.Status = updated.Status
			order.UpdatedAt = updated.UpdatedAt
			return
		}
	}
}

// Depth returns the aggregated price-level view of the book: bids sorted by
// price descending, asks ascending, each summing remaining quantity across
// all resting orders at that exact price.
func (b *Book) Depth() (bids, asks []models.Level) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	bids = make([]models.Level, 0, len(b.bidPrices))
	asks = make([]models.Level, 0, len(b.askPrices))
	for _, price := range b.bidPrices {
		if pl := b.Bids[priceKey(price)]; pl != nil && !pl.isEmpty() {
			bids = append(bids, models.Level{Price: price, Quantity: pl.totalQuantity()})
		}
	}
	for _, price := range b.askPrices {
		if pl := b.Asks[priceKey(price)]; pl != nil && !pl.isEmpty() {
			asks = append(asks, models.Level{Price: price, Quantity: pl.totalQuantity()})
		}
	}
	return bids, asks
}

func (b *Book) refreshBidPrices() {
	b.bidPrices = make([]decimal.Decimal, 0, len(b.Bids))
	for _, pl := range b.Bids {
		if !pl.isEmpty() {
			b.bidPrices = append(b.bidPrices, pl.Price)
		}
	}
	sort.Slice(b.bidPrices, func(i, j int) bool {
		return b.bidPrices[i].GreaterThan(b.bidPrices[j])
	})
}

func (b *Book) refreshAskPrices() {
	b.askPrices = make([]decimal.Decimal, 0, len(b.Asks))
	for _, pl := range b.Asks {
		if !pl.isEmpty() {
			b.askPrices = append(b.askPrices, pl.Price)
		}
	}
	sort.Slice(b.askPrices, func(i, j int) bool {
		return b.askPrices[i].LessThan(b.askPrices[j])
	})
}
