package engine

import (
	"time"

	"orderbook-engine/internal/models"
)

// MatchResult is the outcome of matching an aggressor order against a book.
// It holds updated copies only; neither the book nor its resting orders are
// touched until the caller commits the result and applies it.
type MatchResult struct {
	Trades    []models.Trade
	Aggressor *models.Order   // updated copy of the incoming order with its final status
	Resting   []*models.Order // updated copies of resting orders consumed by the match
}

// matcher implements price-time-priority crossing. Every order is a limit
// order; there is no market-order branch, since this book only ever trades
// resting limit orders against one another.
type matcher struct{}

func newMatcher() *matcher { return &matcher{} }

// match walks the crossing region of the book in price-time order and
// executes trades at each resting order's price. It works entirely on
// copies: the caller persists the result inside a single transaction and
// only then applies it to the book, so a failed commit leaves the in-memory
// view untouched.
func (m *matcher) match(aggressor *models.Order, book *Book) *MatchResult {
	result := &MatchResult{
		Trades:  make([]models.Trade, 0),
		Resting: make([]*models.Order, 0),
	}

	working := *aggressor
	executedAt := time.Now()

	for _, candidate := range book.crossing(aggressor.Side, aggressor.Price) {
		if working.Remaining().IsZero() {
			break
		}

		resting := *candidate
		take := working.Remaining()
		if resting.Remaining().LessThan(take) {
			take = resting.Remaining()
		}
		// A drained candidate can linger briefly between fill and removal;
		// skip it rather than fault.
		if !take.IsPositive() {
			continue
		}

		result.Trades = append(result.Trades, models.Trade{
			CommodityID:         working.CommodityID,
			OrderID:             working.ID,
			CounterpartyOrderID: resting.ID,
			Price:               resting.Price,
			Quantity:            take,
			ExecutedAt:          executedAt,
		})

		working.FilledQuantity = working.FilledQuantity.Add(take)
		resting.FilledQuantity = resting.FilledQuantity.Add(take)
		resting.UpdatedAt = executedAt
		if resting.Remaining().IsZero() {
			resting.Status = models.OrderStatusFilled
		} else {
			resting.Status = models.OrderStatusPartial
		}
		result.Resting = append(result.Resting, &resting)
	}

	switch {
	case working.Remaining().IsZero():
		working.Status = models.OrderStatusFilled
	case working.FilledQuantity.IsPositive():
		working.Status = models.OrderStatusPartial
	default:
		working.Status = models.OrderStatusOpen
	}
	result.Aggressor = &working

	return result
}
