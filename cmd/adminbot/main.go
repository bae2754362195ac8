// The adminbot binary runs the Telegram admin console for the store.
package main

import (
	"os"

	"github.com/kustore/storefront/bot"
	"github.com/kustore/storefront/config"
	"github.com/kustore/storefront/images"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.LogError("invalid configuration", logging.Error(err))
		os.Exit(1)
	}
	if err := cfg.ValidateBot(); err != nil {
		logging.LogError("invalid bot configuration", logging.Error(err))
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

	var uploader *images.Uploader
	if err := cfg.ValidateStorage(); err != nil {
		logger.Warn("image uploads disabled", logging.Error(err))
	} else {
		uploader = images.NewUploader(cfg.StorageURL, cfg.StorageBucket, cfg.StorageToken, logger)
	}

	b, err := bot.New(cfg.BotToken, cfg.AdminChatID, db, uploader, logger)
	if err != nil {
		logger.Error("bot startup failed", logging.Error(err))
		os.Exit(1)
	}

	if err := b.Run(); err != nil {
		logger.Error("bot stopped", logging.Error(err))
		os.Exit(1)
	}
}
