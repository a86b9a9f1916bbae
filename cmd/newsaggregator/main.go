package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"NewsAggregator/internal/app"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	var db *sql.DB
	if dsn := cfg.Database.DSN; dsn != "" {
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("ping database", "error", err)
			os.Exit(1)
		}
	}

	application := app.New(cfg, db, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
