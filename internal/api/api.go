// Package api is the thin HTTP adapter between JSON requests and the
// matching engine. It owns request validation,
// X-API-Key authentication, and serialization; it never mutates order or
// trade state directly — every state change goes through internal/engine.
package api

import (
	"net/http"

	"orderbook-engine/internal/engine"
	"orderbook-engine/internal/storage"
)

// API wires the persistence port and matching engine to HTTP handlers.
type API struct {
	store  storage.Store
	engine *engine.Engine
}

// New constructs an API adapter.
func New(store storage.Store, eng *engine.Engine) *API {
	return &API{store: store, engine: eng}
}

// Routes returns the configured mux for every API endpoint.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/customers", a.handleCreateCustomer)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("GET /api/customers", a.withAuth(a.handleGetCustomer))

	mux.HandleFunc("GET /api/commodities", a.withAuth(a.handleListCommodities))
	mux.HandleFunc("POST /api/commodities", a.withAuth(a.handleCreateCommodity))
	mux.HandleFunc("GET /api/commodities/{id}", a.withAuth(a.handleGetCommodity))

	mux.HandleFunc("GET /api/orderbook/{commodity_id}", a.withAuth(a.handleOrderBook))

	mux.HandleFunc("GET /api/orders", a.withAuth(a.handleListOrders))
	mux.HandleFunc("POST /api/orders", a.withAuth(a.handleCreateOrder))
	mux.HandleFunc("GET /api/orders/{id}", a.withAuth(a.handleGetOrder))
	mux.HandleFunc("DELETE /api/orders/{id}", a.withAuth(a.handleCancelOrder))

	mux.HandleFunc("GET /api/trades", a.withAuth(a.handleListTrades))

	return mux
}
