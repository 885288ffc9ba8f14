package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Glow-in-active/TimmiPay-Backend/internal/api"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/config"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/service"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/session"
	"github.com/Glow-in-active/TimmiPay-Backend/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbPool.Close()

	// Initialize Layers
	ledgerStore := store.NewWithPool(dbPool)
	sessions := session.NewStore(dbPool)
	transfers := service.NewTransferService(service.NewLedger(ledgerStore), uuid.New)
	balances := service.NewBalanceService(ledgerStore)
	handler := api.NewHandler(sessions, transfers, balances)

	// Router
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.Health).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/balance", handler.Balance).Methods("POST")
	apiV1.HandleFunc("/transfer", handler.Transfer).Methods("POST")
	apiV1.HandleFunc("/history", handler.History).Methods("POST")

	slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
