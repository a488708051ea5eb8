package main

import (
	"context"
	"net/http"
	"time"

	_ "github.com/ZanzyTHEbar/calcbot/docs"
	"github.com/ZanzyTHEbar/calcbot/internal/cache"
	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	"github.com/ZanzyTHEbar/calcbot/internal/config"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/ZanzyTHEbar/calcbot/internal/gateway"
	"github.com/ZanzyTHEbar/calcbot/internal/middleware"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
	"github.com/ZanzyTHEbar/calcbot/internal/security"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// unknownCommandLabel groups metrics for names outside the registry so
// arbitrary paths cannot grow the metrics maps.
const unknownCommandLabel = "unknown"

type server struct {
	cfg         config.Config
	logger      *monitoring.Logger
	metrics     *monitoring.Metrics
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
	results     *cache.Cache[commands.Response]
	registry    *commands.Registry
	gateway     *gateway.Gateway
}

func newServer(cfg config.Config, logger *monitoring.Logger, metrics *monitoring.Metrics) *server {
	s := &server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			MaxInputLength:    cfg.Security.MaxInputLength,
			MaxRequestsPerMin: cfg.Security.RatePerMinute,
			RequestTimeout:    cfg.Security.RequestTimeout(),
			EnableHSTS:        cfg.Security.EnableHSTS,
		}, metrics),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}

	opts := []commands.RegistryOption{commands.WithObserver(s.observeCommand)}
	if cfg.Cache.TTLSeconds > 0 {
		s.results = cache.New[commands.Response](cfg.Cache.TTL(), cfg.Cache.MaxEntries)
		opts = append(opts, commands.WithCache(s.results))
	}
	s.registry = commands.NewRegistry(opts...)
	s.gateway = gateway.New(s.registry, s.security, logger, cfg.Security.AllowedOrigins)

	return s
}

// startBackground runs the periodic cleanups until ctx is done.
func (s *server) startBackground(ctx context.Context) {
	s.security.Cleanup(ctx, 10*time.Minute)
	if s.results != nil {
		go s.results.Cleanup(ctx, time.Minute)
	}
}

func (s *server) observeCommand(name string, optionCount int, err error, duration time.Duration) {
	category := ""
	if err != nil {
		appErr := apperrors.ToAppError(err)
		category = string(appErr.Category)
		if appErr.Category == apperrors.CategoryNotFound {
			name = unknownCommandLabel
		}
	}

	s.metrics.RecordCommand(name, category)
	s.logger.CommandLogger(name, optionCount, category, duration)
}

func (s *server) router() *gin.Engine {
	r := gin.New()

	// Request ID first so every later log line can carry it
	r.Use(monitoring.RequestID())
	r.Use(monitoring.HealthMonitoringMiddleware(s.metrics, version))
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))

	// Add error handling middleware
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	// Add security middleware
	r.Use(s.security.SecurityHeaders)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.Security.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", monitoring.RequestIDHeader},
		ExposeHeaders:    []string{monitoring.RequestIDHeader, "ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.RateLimitByIP)

	r.Use(s.compression.Handler())
	r.Use(middleware.ETag())

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", s.handleMetrics)

	api := r.Group("/api/v1")
	api.Use(s.security.GatewayAuth(s.cfg.Security.GatewaySecret))
	api.Use(s.security.ValidateContentType)
	{
		api.GET("/commands", s.handleListCommands)
		api.POST("/commands/:name", s.handleRunCommand)
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/regression", s.handleRegression)
		api.GET("/ws", s.gateway.Handle)
	}

	return r
}
