package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/calcbot/internal/config"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// @title calcbot gateway
// @version 1.0
// @description Statistics, regression and cipher commands for chat platforms.
// @BasePath /
// @securityDefinitions.apikey GatewayToken
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(getEnvOrDefault("CALCBOT_CONFIG", "calcbot.toml"))
	if err != nil {
		appErr := apperrors.NewConfigurationError("Failed to load configuration", err)
		slog.Error(appErr.Error(), "cause", err)
		os.Exit(1)
	}

	// Structured logging setup
	appLogger := monitoring.NewLogger(monitoring.ParseLevel(cfg.Log.Level))
	slog.SetDefault(appLogger.Logger)

	if cfg.Security.GatewaySecret == "" {
		slog.Warn("Gateway secret not set, /api/v1 is unauthenticated")
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newServer(cfg, appLogger, monitoring.NewMetrics())
	s.startBackground(ctx)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.router(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	go func() {
		appLogger.SystemLogger("startup", "listening on :"+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited", "uptime", time.Since(s.metrics.StartTime).String())
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
