package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AravindYuvraj/digital-wallet/internal/config"
	"github.com/AravindYuvraj/digital-wallet/internal/db"
	"github.com/AravindYuvraj/digital-wallet/internal/handlers"
	"github.com/AravindYuvraj/digital-wallet/internal/logger"
	"github.com/AravindYuvraj/digital-wallet/internal/metrics"
	"github.com/AravindYuvraj/digital-wallet/internal/services"
	"github.com/AravindYuvraj/digital-wallet/internal/store"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		log.WithError(err).Fatal("failed to ensure schema")
	}

	metrics.Init()

	users := store.NewUserStore(database)
	transactions := store.NewTransactionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	wallet := services.NewWalletService(txRunner, users, transactions, audit, hub, log)

	handler := handlers.New(txRunner, cfg, users, transactions, audit, wallet, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("wallet API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}
