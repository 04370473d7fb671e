// Package memstore is an in-memory storage.Store used by engine and API
// tests so the matcher and engine can be exercised without a live database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage"
)

// Store is a non-durable, mutex-guarded implementation of storage.Store.
type Store struct {
	mu sync.Mutex

	nextOrderID     int64
	nextTradeID     int64
	nextCommodityID int64
	nextCustomerID  int64

	orders      map[int64]*models.Order
	trades      map[int64]*models.Trade
	commodities map[int64]*models.Commodity
	customers   map[int64]*models.Customer
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		orders:      make(map[int64]*models.Order),
		trades:      make(map[int64]*models.Trade),
		commodities: make(map[int64]*models.Commodity),
		customers:   make(map[int64]*models.Customer),
	}
}

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrderID++
	order.ID = s.nextOrderID
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; !ok {
		return storage.ErrNotFound
	}
	order.UpdatedAt = time.Now()
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) QueryResting(ctx context.Context, commodityID int64, side models.OrderSide, direction storage.SortDirection) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Order
	for _, o := range s.orders {
		if o.CommodityID == commodityID && o.Side == side && o.Resting() {
			cp := *o
			matched = append(matched, &cp)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Price.Equal(matched[j].Price) {
			if direction == storage.Descending {
				return matched[i].Price.GreaterThan(matched[j].Price)
			}
			return matched[i].Price.LessThan(matched[j].Price)
		}
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertTrade(ctx context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTradeID++
	trade.ID = s.nextTradeID
	trade.ExecutedAt = time.Now()

	cp := *trade
	s.trades[trade.ID] = &cp
	return nil
}

func (s *Store) ListTradesByOrderIDs(ctx context.Context, orderIDs []int64) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}

	var out []models.Trade
	for _, t := range s.trades {
		if wanted[t.OrderID] || wanted[t.CounterpartyOrderID] {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetCommodity(ctx context.Context, id int64) (*models.Commodity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.commodities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Commodity, 0, len(s.commodities))
	for _, c := range s.commodities {
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) InsertCommodity(ctx context.Context, c *models.Commodity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.commodities {
		if existing.Name == c.Name || existing.Symbol == c.Symbol {
			return storage.ErrConflict
		}
	}

	s.nextCommodityID++
	c.ID = s.nextCommodityID
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	cp := *c
	s.commodities[c.ID] = &cp
	return nil
}

func (s *Store) InsertCustomer(ctx context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.Email == c.Email || existing.APIKey == c.APIKey {
			return storage.ErrConflict
		}
	}

	s.nextCustomerID++
	c.ID = s.nextCustomerID
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

func (s *Store) GetCustomerByAPIKey(ctx context.Context, apiKey string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.customers {
		if c.APIKey == apiKey {
			cp := *c
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func copyMap[V any](src map[int64]*V) map[int64]*V {
	dst := make(map[int64]*V, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

// Tx snapshots the store before running fn and restores the snapshot if fn
// fails, so an aborted multi-write leaves no partial state behind, matching
// what a relational adapter's rollback guarantees.
func (s *Store) Tx(ctx context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	orders := copyMap(s.orders)
	trades := copyMap(s.trades)
	commodities := copyMap(s.commodities)
	customers := copyMap(s.customers)
	nextOrderID, nextTradeID := s.nextOrderID, s.nextTradeID
	nextCommodityID, nextCustomerID := s.nextCommodityID, s.nextCustomerID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.orders, s.trades = orders, trades
		s.commodities, s.customers = commodities, customers
		s.nextOrderID, s.nextTradeID = nextOrderID, nextTradeID
		s.nextCommodityID, s.nextCustomerID = nextCommodityID, nextCustomerID
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
