// The storefront binary serves the customer-facing API: catalog, promo
// validation, checkout, order history and favorites.
package main

import (
	"os"

	"github.com/kustore/storefront/auth"
	"github.com/kustore/storefront/checkout"
	"github.com/kustore/storefront/config"
	"github.com/kustore/storefront/httpapi"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/notify"
	"github.com/kustore/storefront/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.LogError("invalid configuration", logging.Error(err))
		os.Exit(1)
	}

	logger := logging.NewDefaultLogger(logging.ParseLevel(cfg.LogLevel))
	logging.SetDefault(logger)

	db, err := postgres.Connect(cfg.Database, logger)
	if err != nil {
		logger.Error("database connection failed", logging.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		logger.Error("schema setup failed", logging.Error(err))
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.NotifyEndpoint != "" {
		notifier = notify.NewTelegramNotifier(cfg.NotifyEndpoint, cfg.NotifyToken, logger)
	} else {
		logger.Warn("order notifications disabled, NOTIFY_ENDPOINT is not set")
	}

	co := checkout.NewService(db, notifier, logger)
	au := auth.NewService(db, logger)
	srv := httpapi.NewServer(db, co, au, logger)

	if err := srv.Start(cfg.HTTPAddr); err != nil {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
}
