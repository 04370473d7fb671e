package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"orderbook-engine/internal/auth"
	"orderbook-engine/internal/models"
	"orderbook-engine/internal/storage"
)

// handleCreateCustomer implements POST /api/customers.
func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logError("handleCreateCustomer", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	customer := &models.Customer{
		Name:         req.Name,
		Email:        req.Email,
		APIKey:       auth.NewAPIKey(),
		PasswordHash: hash,
	}

	if err := a.store.InsertCustomer(r.Context(), customer); err != nil {
		if err == storage.ErrConflict {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		logError("handleCreateCustomer", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, customer)
}

// handleLogin implements POST /api/login.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	customer, err := a.store.GetCustomerByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(customer.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

// handleGetCustomer implements GET /api/customers: the caller's
// own profile.
func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, customerFromContext(r))
}

// handleListCommodities implements GET /api/commodities.
func (a *API) handleListCommodities(w http.ResponseWriter, r *http.Request) {
	commodities, err := a.store.ListCommodities(r.Context())
	if err != nil {
		logError("handleListCommodities", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, commodities)
}

// handleCreateCommodity implements POST /api/commodities.
func (a *API) handleCreateCommodity(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommodityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "name and symbol are required")
		return
	}

	commodity := &models.Commodity{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
	}
	if err := a.store.InsertCommodity(r.Context(), commodity); err != nil {
		if err == storage.ErrConflict {
			writeError(w, http.StatusConflict, "commodity name or symbol already exists")
			return
		}
		logError("handleCreateCommodity", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, commodity)
}

// handleGetCommodity implements GET /api/commodities/{id}.
func (a *API) handleGetCommodity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commodity id")
		return
	}

	commodity, err := a.store.GetCommodity(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "commodity not found")
			return
		}
		logError("handleGetCommodity", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, commodity)
}

// handleOrderBook implements GET /api/orderbook/{commodity_id}: the depth
// snapshot for one commodity.
func (a *API) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	commodityID, err := strconv.ParseInt(r.PathValue("commodity_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commodity id")
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Depth(commodityID))
}

// handleListOrders implements GET /api/orders: the caller's own orders.
func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)
	orders, err := a.store.ListOrdersByCustomer(r.Context(), customer.ID)
	if err != nil {
		logError("handleListOrders", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleCreateOrder implements POST /api/orders. The authenticated caller's
// id always overrides any client value.
func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		writeError(w, http.StatusBadRequest, "side must be 'buy' or 'sell'")
		return
	}
	if !req.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if !req.Quantity.IsPositive() {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	customer := customerFromContext(r)
	order := &models.Order{
		CustomerID:  customer.ID,
		CommodityID: req.CommodityID,
		Side:        req.Side,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}

	updated, trades, err := a.engine.Submit(r.Context(), order)
	if err != nil {
		writeEngineError(w, "handleCreateOrder", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateOrderResponse{Order: updated, Trades: trades})
}

// handleGetOrder implements GET /api/orders/{id}: must be the caller's own order.
func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := a.engine.GetOrder(r.Context(), id)
	if err != nil {
		writeEngineError(w, "handleGetOrder", err)
		return
	}
	if order.CustomerID != customerFromContext(r).ID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleCancelOrder implements DELETE /api/orders/{id}.
func (a *API) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := a.engine.GetOrder(r.Context(), id)
	if err != nil {
		writeEngineError(w, "handleCancelOrder", err)
		return
	}
	if order.CustomerID != customerFromContext(r).ID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	cancelled, err := a.engine.Cancel(r.Context(), id)
	if err != nil {
		writeEngineError(w, "handleCancelOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

// handleListTrades implements GET /api/trades: trades involving the caller's orders.
func (a *API) handleListTrades(w http.ResponseWriter, r *http.Request) {
	customer := customerFromContext(r)

	orders, err := a.store.ListOrdersByCustomer(r.Context(), customer.ID)
	if err != nil {
		logError("handleListTrades", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	trades, err := a.store.ListTradesByOrderIDs(r.Context(), ids)
	if err != nil {
		logError("handleListTrades", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}
