package engine

import (
	"testing"
	"time"

	"orderbook-engine/internal/models"

	"github.com/shopspring/decimal"
)

func newRestingOrder(id int64, side models.OrderSide, price, quantity float64, age time.Duration) *models.Order {
	return &models.Order{
		ID:          id,
		CommodityID: 1,
		Side:        side,
		Status:      models.OrderStatusOpen,
		Price:       decimal.NewFromFloat(price),
		Quantity:    decimal.NewFromFloat(quantity),
		CreatedAt:   time.Now().Add(-age),
	}
}

// apply mirrors what the engine does after a successful commit.
func apply(book *Book, result *MatchResult) {
	for _, r := range result.Resting {
		book.ApplyFill(r)
	}
	if result.Aggressor.Resting() {
		book.AddOrder(result.Aggressor)
	}
}

// TestMatcher_FullMatchAtRestingPrice verifies a buy that fully fills a
// smaller resting sell executes at the resting order's price and leaves the
// buy partially filled.
func TestMatcher_FullMatchAtRestingPrice(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	sell := newRestingOrder(1, models.OrderSideSell, 1890, 5, time.Minute)
	book.AddOrder(sell)

	buy := &models.Order{ID: 2, CommodityID: 1, Side: models.OrderSideBuy, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(1900), Quantity: decimal.NewFromInt(10)}

	result := m.match(buy, book)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if !trade.Price.Equal(decimal.NewFromInt(1890)) {
		t.Errorf("expected trade price 1890 (resting price), got %s", trade.Price)
	}
	if !trade.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected trade quantity 5, got %s", trade.Quantity)
	}

	if result.Aggressor.Status != models.OrderStatusPartial {
		t.Errorf("expected buy status partial, got %s", result.Aggressor.Status)
	}
	if !result.Aggressor.FilledQuantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected buy filled 5, got %s", result.Aggressor.FilledQuantity)
	}

	if len(result.Resting) != 1 {
		t.Fatalf("expected 1 updated resting order, got %d", len(result.Resting))
	}
	if result.Resting[0].Status != models.OrderStatusFilled {
		t.Errorf("expected sell filled, got %s", result.Resting[0].Status)
	}

	// Nothing in the book changed until the result is applied.
	if !sell.FilledQuantity.IsZero() {
		t.Errorf("resting order mutated before apply: filled=%s", sell.FilledQuantity)
	}
	apply(book, result)
	_, asks := book.Depth()
	if len(asks) != 0 {
		t.Errorf("expected asks empty after apply, got %+v", asks)
	}
}

// TestMatcher_NoCrossRestsBothSides verifies that when bid and ask do not
// overlap, both orders rest untouched.
func TestMatcher_NoCrossRestsBothSides(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	sell := newRestingOrder(1, models.OrderSideSell, 100, 3, time.Minute)
	book.AddOrder(sell)

	buy := &models.Order{ID: 2, CommodityID: 1, Side: models.OrderSideBuy, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(99), Quantity: decimal.NewFromInt(3)}

	result := m.match(buy, book)

	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if result.Aggressor.Status != models.OrderStatusOpen {
		t.Fatalf("expected buy to rest fully open, got %s", result.Aggressor.Status)
	}

	apply(book, result)
	bids, asks := book.Depth()
	if len(bids) != 1 || len(asks) != 1 {
		t.Errorf("expected both sides resting, got bids=%v asks=%v", bids, asks)
	}
}

// TestMatcher_TimePriority verifies that at equal price, the earlier
// resting order is filled first.
func TestMatcher_TimePriority(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	a := newRestingOrder(1, models.OrderSideBuy, 100, 5, 2*time.Minute)
	b := newRestingOrder(2, models.OrderSideBuy, 100, 5, time.Minute)
	book.AddOrder(a)
	book.AddOrder(b)

	sell := &models.Order{ID: 3, CommodityID: 1, Side: models.OrderSideSell, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(5)}

	result := m.match(sell, book)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].CounterpartyOrderID != 1 {
		t.Errorf("expected trade against order 1 (earlier), got %d", result.Trades[0].CounterpartyOrderID)
	}

	apply(book, result)
	bids, _ := book.Depth()
	if len(bids) != 1 || !bids[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected order 2 still resting with qty 5, got %+v", bids)
	}
}

// TestMatcher_PricePriorityBeatsTime verifies that a better price placed
// later still wins over an earlier, worse price.
func TestMatcher_PricePriorityBeatsTime(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	worse := newRestingOrder(1, models.OrderSideSell, 101, 5, 2*time.Minute)
	better := newRestingOrder(2, models.OrderSideSell, 100, 5, time.Minute)
	book.AddOrder(worse)
	book.AddOrder(better)

	buy := &models.Order{ID: 3, CommodityID: 1, Side: models.OrderSideBuy, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(101), Quantity: decimal.NewFromInt(5)}

	result := m.match(buy, book)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].CounterpartyOrderID != 2 {
		t.Errorf("expected trade against order 2 (better price), got %d", result.Trades[0].CounterpartyOrderID)
	}
	if !result.Trades[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected trade price 100, got %s", result.Trades[0].Price)
	}
}

// TestMatcher_WalksMultipleLevels verifies a large incoming order consumes
// several resting price levels in order.
func TestMatcher_WalksMultipleLevels(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	book.AddOrder(newRestingOrder(1, models.OrderSideSell, 100, 3, 3*time.Minute))
	book.AddOrder(newRestingOrder(2, models.OrderSideSell, 101, 4, 2*time.Minute))
	book.AddOrder(newRestingOrder(3, models.OrderSideSell, 102, 5, time.Minute))

	buy := &models.Order{ID: 4, CommodityID: 1, Side: models.OrderSideBuy, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(102), Quantity: decimal.NewFromInt(12)}

	result := m.match(buy, book)

	if len(result.Trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(result.Trades))
	}
	if result.Aggressor.Status != models.OrderStatusFilled {
		t.Errorf("expected incoming order fully filled, got %s", result.Aggressor.Status)
	}
	for i, want := range []int64{1, 2, 3} {
		if result.Trades[i].CounterpartyOrderID != want {
			t.Errorf("trade %d: expected counterparty %d, got %d", i, want, result.Trades[i].CounterpartyOrderID)
		}
	}

	apply(book, result)
	bids, asks := book.Depth()
	if len(bids) != 0 || len(asks) != 0 {
		t.Errorf("expected book empty after boundary fill, got bids=%v asks=%v", bids, asks)
	}
}

// TestMatcher_LimitStopsInsideCrossingRegion verifies the walk stops at the
// aggressor's limit even when deeper levels exist.
func TestMatcher_LimitStopsInsideCrossingRegion(t *testing.T) {
	m := newMatcher()
	book := NewBook(1)

	book.AddOrder(newRestingOrder(1, models.OrderSideSell, 100, 3, 2*time.Minute))
	book.AddOrder(newRestingOrder(2, models.OrderSideSell, 103, 3, time.Minute))

	buy := &models.Order{ID: 3, CommodityID: 1, Side: models.OrderSideBuy, Status: models.OrderStatusOpen,
		Price: decimal.NewFromInt(101), Quantity: decimal.NewFromInt(6)}

	result := m.match(buy, book)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Aggressor.Status != models.OrderStatusPartial {
		t.Errorf("expected partial fill, got %s", result.Aggressor.Status)
	}

	apply(book, result)
	bids, asks := book.Depth()
	if len(bids) != 1 || !bids[0].Price.Equal(decimal.NewFromInt(101)) {
		t.Errorf("expected remainder resting at 101, got %+v", bids)
	}
	if len(asks) != 1 || !asks[0].Price.Equal(decimal.NewFromInt(103)) {
		t.Errorf("expected 103 level untouched, got %+v", asks)
	}
}
