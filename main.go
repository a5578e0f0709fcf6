package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/HMasataka/avgap/internal/config"
	"github.com/HMasataka/avgap/internal/launch"
)

func main() {
	// Stdout is reserved for the console banner, logs go to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", config.DefaultPath, "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	launcher := launch.NewLauncher(launch.Options{
		Port:         cfg.Server.Port,
		Command:      cfg.Launcher.Command,
		StartupGrace: time.Duration(cfg.Launcher.StartupGrace) * time.Second,
		ReadyTimeout: time.Duration(cfg.Launcher.ReadyTimeout) * time.Second,
	})

	if err := launcher.Run(context.Background()); err != nil {
		slog.Error("launch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
