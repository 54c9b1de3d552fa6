package main

import (
	"github.com/AravindYuvraj/digital-wallet/internal/config"
	"github.com/AravindYuvraj/digital-wallet/internal/db"
	"github.com/AravindYuvraj/digital-wallet/internal/logger"
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
		log.WithError(err).Fatal("failed to apply migrations")
	}
	log.Info("migrations applied")
}
