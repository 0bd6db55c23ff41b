// Command server runs the game inventory API.
//
// Configuration comes from the environment (see internal/config); the only
// required value for a non-toy deployment is JWT_SECRET.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/gamestock/internal/config"
	"github.com/sakif/gamestock/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(context.Background())
	if err != nil {
		logger.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Production() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if cfg.UsingDefaultSecret() {
		logger.Warn("JWT_SECRET not set — using an insecure development secret; " +
			"generate one with: openssl rand -hex 32")
	}

	// The SQLite file and upload directory live under data/ by default;
	// create the parents so a fresh checkout runs without setup.
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			logger.Error("creating database directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	srv, err := server.New(*cfg, logger)
	if err != nil {
		logger.Error("creating server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
