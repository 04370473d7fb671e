package engine_test

import (
	"context"
	"testing"

	"orderbook-engine/internal/engine"
	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*engine.Engine, *memstore.Store, int64) {
	t.Helper()
	store := memstore.New()
	commodity := &models.Commodity{Name: "Gold", Symbol: "GOLD"}
	require.NoError(t, store.InsertCommodity(context.Background(), commodity))
	return engine.NewEngine(store), store, commodity.ID
}

func order(commodityID int64, side models.OrderSide, price, quantity float64) *models.Order {
	return &models.Order{
		CommodityID: commodityID,
		Side:        side,
		Price:       decimal.NewFromFloat(price),
		Quantity:    decimal.NewFromFloat(quantity),
	}
}

// TestEngine_RestingBuyThenCrossingSell verifies a resting buy order later
// crossed by a sell fills at the resting price and leaves the remainder
// resting.
func TestEngine_RestingBuyThenCrossingSell(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	alice, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 1900, 10))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, models.OrderStatusOpen, alice.Status)

	bob, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 1890, 5))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(decimal.NewFromInt(1900)))
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, models.OrderStatusFilled, bob.Status)

	refreshed, err := eng.GetOrder(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPartial, refreshed.Status)
	assert.True(t, refreshed.FilledQuantity.Equal(decimal.NewFromInt(5)))

	depth := eng.Depth(commodityID)
	require.Len(t, depth.Bids, 1)
	assert.True(t, depth.Bids[0].Price.Equal(decimal.NewFromInt(1900)))
	assert.True(t, depth.Bids[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Empty(t, depth.Asks)
}

// TestEngine_PartialThenTopUp verifies a large incoming sell can partially
// fill against a partially-filled resting buy and rest the remainder.
func TestEngine_PartialThenTopUp(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	_, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 1900, 10))
	require.NoError(t, err)
	_, _, err = eng.Submit(ctx, order(commodityID, models.OrderSideSell, 1890, 5))
	require.NoError(t, err)

	charlie, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 1880, 15))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(decimal.NewFromInt(1900)))
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, models.OrderStatusPartial, charlie.Status)
	assert.True(t, charlie.FilledQuantity.Equal(decimal.NewFromInt(5)))

	depth := eng.Depth(commodityID)
	assert.Empty(t, depth.Bids)
	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Asks[0].Price.Equal(decimal.NewFromFloat(1880)))
	assert.True(t, depth.Asks[0].Quantity.Equal(decimal.NewFromInt(10)))
}

// TestEngine_CancelWhilePartial verifies a cancelled order never
// participates in later matching.
func TestEngine_CancelWhilePartial(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	buy, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 50, 10))
	require.NoError(t, err)

	_, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 50, 4))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	cancelled, err := eng.Cancel(ctx, buy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.True(t, cancelled.FilledQuantity.Equal(decimal.NewFromInt(4)))

	_, trades, err = eng.Submit(ctx, order(commodityID, models.OrderSideSell, 50, 6))
	require.NoError(t, err)
	assert.Empty(t, trades, "cancelled order must not be matched")

	depth := eng.Depth(commodityID)
	assert.Empty(t, depth.Bids)
	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Asks[0].Quantity.Equal(decimal.NewFromInt(6)))
}

// TestEngine_CancelIsIdempotent verifies cancelling an already-cancelled
// order returns the same terminal state instead of erroring.
func TestEngine_CancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	buy, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 10, 1))
	require.NoError(t, err)

	first, err := eng.Cancel(ctx, buy.ID)
	require.NoError(t, err)
	second, err := eng.Cancel(ctx, buy.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.FilledQuantity.Equal(second.FilledQuantity))
}

// TestEngine_CancelUnknownOrder verifies cancelling a nonexistent order id
// returns a NotFound engine error.
func TestEngine_CancelUnknownOrder(t *testing.T) {
	eng, _, _ := setup(t)
	_, err := eng.Cancel(context.Background(), 999)
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.KindNotFound, engErr.Kind)
}

// TestEngine_SubmitRejectsUnknownCommodity verifies submitting against an
// unknown commodity id returns a NotFound engine error.
func TestEngine_SubmitRejectsUnknownCommodity(t *testing.T) {
	eng, _, _ := setup(t)
	_, _, err := eng.Submit(context.Background(), order(9999, models.OrderSideBuy, 10, 1))
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.KindNotFound, engErr.Kind)
}

// TestEngine_SubmitRejectsNonPositivePrice verifies a zero or negative
// price is rejected with an InvalidArgument engine error.
func TestEngine_SubmitRejectsNonPositivePrice(t *testing.T) {
	eng, _, commodityID := setup(t)
	_, _, err := eng.Submit(context.Background(), order(commodityID, models.OrderSideBuy, 0, 1))
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.KindInvalidArgument, engErr.Kind)
}

// TestEngine_TimePriority verifies that between two resting buys at the same
// price, the earlier one is filled first.
func TestEngine_TimePriority(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	first, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 100, 5))
	require.NoError(t, err)
	second, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 100, 5))
	require.NoError(t, err)

	_, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 100, 5))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, first.ID, trades[0].CounterpartyOrderID)

	refreshed, err := eng.GetOrder(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, refreshed.Status)
}

// TestEngine_PricePriorityBeatsTime verifies that a better price placed
// later beats an earlier, worse price.
func TestEngine_PricePriorityBeatsTime(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	_, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 101, 5))
	require.NoError(t, err)
	better, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 100, 5))
	require.NoError(t, err)

	_, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 101, 5))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, better.ID, trades[0].CounterpartyOrderID)
	assert.True(t, trades[0].Price.Equal(decimal.NewFromInt(100)))
}

// TestEngine_NoCrossRestsBothSides verifies non-overlapping bid and ask both
// rest and show up in depth.
func TestEngine_NoCrossRestsBothSides(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	_, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 100, 3))
	require.NoError(t, err)
	buy, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 99, 3))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, models.OrderStatusOpen, buy.Status)

	depth := eng.Depth(commodityID)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Bids[0].Price.Equal(decimal.NewFromInt(99)))
	assert.True(t, depth.Asks[0].Price.Equal(decimal.NewFromInt(100)))
}

// TestEngine_BoundaryFillEmptiesCrossingRegion verifies an incoming order
// sized exactly to the crossing region fills completely and clears it.
func TestEngine_BoundaryFillEmptiesCrossingRegion(t *testing.T) {
	ctx := context.Background()
	eng, _, commodityID := setup(t)

	_, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 100, 3))
	require.NoError(t, err)
	_, _, err = eng.Submit(ctx, order(commodityID, models.OrderSideSell, 101, 4))
	require.NoError(t, err)
	_, _, err = eng.Submit(ctx, order(commodityID, models.OrderSideSell, 103, 2))
	require.NoError(t, err)

	buy, trades, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 101, 7))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, models.OrderStatusFilled, buy.Status)
	assert.True(t, buy.FilledQuantity.Equal(buy.Quantity))

	depth := eng.Depth(commodityID)
	assert.Empty(t, depth.Bids)
	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Asks[0].Price.Equal(decimal.NewFromInt(103)))
}

// TestEngine_Conservation verifies filled_quantity always equals the sum of
// trade quantities across every trade touching an order.
func TestEngine_Conservation(t *testing.T) {
	ctx := context.Background()
	eng, store, commodityID := setup(t)

	_, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideSell, 10, 3))
	require.NoError(t, err)
	_, _, err = eng.Submit(ctx, order(commodityID, models.OrderSideSell, 10, 4))
	require.NoError(t, err)

	buy, _, err := eng.Submit(ctx, order(commodityID, models.OrderSideBuy, 10, 7))
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusFilled, buy.Status)

	trades, err := store.ListTradesByOrderIDs(ctx, []int64{buy.ID})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tr := range trades {
		sum = sum.Add(tr.Quantity)
	}
	assert.True(t, sum.Equal(buy.FilledQuantity))
	assert.True(t, sum.Equal(buy.Quantity))
}
