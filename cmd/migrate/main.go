package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/database"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations applied successfully")
}
