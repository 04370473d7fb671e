// Command server runs the commodity order book HTTP API: it wires the
// MySQL-backed persistence port to the matching engine and serves the
// JSON endpoints.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderbook-engine/internal/api"
	"orderbook-engine/internal/bootstrap"
	"orderbook-engine/internal/engine"
	"orderbook-engine/internal/storage/mysql"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] .env not loaded: %v", err)
	}

	log.Println("[INFO] Starting order book server...")

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "mysql://root@127.0.0.1:3306/orderbook"
	}

	db, err := mysql.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("[ERROR] failed to connect to database: %v", err)
	}
	defer func() {
		log.Println("[INFO] closing database connection...")
		db.Close()
	}()
	log.Println("[INFO] database connection established")

	if err := bootstrap.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("[ERROR] failed to create schema: %v", err)
	}

	store := mysql.New(db)
	matchingEngine := engine.NewEngine(store)

	commodities, err := store.ListCommodities(ctx)
	if err != nil {
		log.Fatalf("[ERROR] failed to list commodities: %v", err)
	}
	ids := make([]int64, len(commodities))
	for i, c := range commodities {
		ids[i] = c.ID
	}

	log.Println("[INFO] loading resting orders into order books...")
	if err := matchingEngine.LoadRestingOrders(ctx, ids); err != nil {
		log.Fatalf("[ERROR] failed to load resting orders: %v", err)
	}

	apiServer := api.New(store, matchingEngine)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: apiServer.Routes(),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[INFO] server starting on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[ERROR] server failed: %v", err)
		}
	}()

	<-stop
	log.Println("[INFO] shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] server forced to shutdown: %v", err)
	} else {
		log.Println("[INFO] server gracefully stopped")
	}
}
