package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/HMasataka/avgap/internal/analyzer"
	"github.com/HMasataka/avgap/internal/config"
	"github.com/HMasataka/avgap/internal/runstore"
	"github.com/HMasataka/avgap/internal/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", config.DefaultPath, "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := runstore.NewStore(cfg.Analysis.History)

	service := analyzer.NewService(store, analyzer.Options{
		MaxWorkers:          cfg.Analysis.MaxWorkers,
		SlackMinutes:        cfg.Analysis.SlackMinutes,
		SeriesJumpThreshold: cfg.Analysis.SeriesJumpThreshold,
		ProgressInterval:    analyzer.DefaultOptions().ProgressInterval,
	})

	srv, err := web.NewServer(service, web.Options{
		MaxPasteBytes:        cfg.Server.MaxPasteBytes,
		DefaultSlackMinutes:  cfg.Analysis.SlackMinutes,
		DefaultJumpThreshold: cfg.Analysis.SeriesJumpThreshold,
		HistoryShown:         web.DefaultOptions().HistoryShown,
	})
	if err != nil {
		slog.Error("failed to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: srv.Handler(),
	}

	go func() {
		slog.Info("analysis server starting on", "Addr", server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down server...")
	service.Stop()
	server.Close()
}
