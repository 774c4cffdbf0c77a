package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/fitplan/internal/api"
	"github.com/illegalcall/fitplan/internal/config"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	server := api.NewServer(cfg)

	// Graceful shutdown.
	go func() {
		slog.Info("🚀 Sandbox running", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Sandbox shutting down...")
	if err := server.Shutdown(); err != nil {
		slog.Error("Failed to shut down cleanly", "error", err)
	}
}
