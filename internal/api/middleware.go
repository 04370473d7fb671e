package api

import (
	"context"
	"log"
	"net/http"

	"orderbook-engine/internal/models"
)

type contextKey string

const customerContextKey contextKey = "customer"

// withAuth looks up the caller by X-API-Key and attaches the customer to
// the request context. Handlers that require a caller's identity call
// customerFromContext.
func (a *API) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		customer, err := a.store.GetCustomerByAPIKey(r.Context(), apiKey)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), customerContextKey, customer)
		next(w, r.WithContext(ctx))
	}
}

func customerFromContext(r *http.Request) *models.Customer {
	c, _ := r.Context().Value(customerContextKey).(*models.Customer)
	return c
}

func logError(op string, err error) {
	log.Printf("[ERROR] %s: %v", op, err)
}
