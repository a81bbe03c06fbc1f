package main

import (
	"MultiAI_Assistant/backend/go/internal/assistant"
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/internal/gateway/api"
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/http"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"context"
	"errors"
	"flag"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	serviceLogger := logger.New("AssistantGateway", "", "")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	clients, err := assistant.Build(ctx, cfg, serviceLogger)
	cancel()
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize clients")
	}

	srv, err := http.NewServer(cfg, serviceLogger)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create server")
	}
	api.RegisterRoutes(srv.Engine(), api.NewAPI(clients.PDF, clients.Chat, clients.Career, serviceLogger, clients.Checks...))

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}
	if err := clients.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing clients")
	}

	serviceLogger.Info("Server gracefully stopped")
}
