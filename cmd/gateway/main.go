package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/travism26/system-monitoring-gateway/internal/broker"
	"github.com/travism26/system-monitoring-gateway/internal/handler"
	"github.com/travism26/system-monitoring-gateway/internal/middleware"
	"github.com/travism26/system-monitoring-gateway/internal/model"
	"github.com/travism26/system-monitoring-gateway/internal/payload"
	"github.com/travism26/system-monitoring-gateway/internal/ratelimit"
	"github.com/travism26/system-monitoring-gateway/internal/repository"
	"github.com/travism26/system-monitoring-gateway/internal/service"
	"github.com/travism26/system-monitoring-gateway/pkg/config"
	"github.com/travism26/system-monitoring-gateway/pkg/database"
	"github.com/travism26/system-monitoring-gateway/pkg/jwtutil"
	"github.com/travism26/system-monitoring-gateway/pkg/logger"
	"github.com/travism26/system-monitoring-gateway/prometheus"
)

const serviceName = "system-monitoring-gateway"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting monitoring gateway...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(db,
		&model.User{},
		&model.Tenant{},
		&model.APIKey{},
		&model.Team{},
		&model.TeamMember{},
	); err != nil {
		log.Fatal("Failed to migrate database models", zap.Error(err))
	}
	log.Info("Database connection established")

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	keyRepo := repository.NewAPIKeyRepository(db)
	teamRepo := repository.NewTeamRepository(db)

	userService := service.NewUserService(userRepo)
	keyService := service.NewAPIKeyService(keyRepo)
	teamService := service.NewTeamService(teamRepo, userRepo)
	tenantService := service.NewTenantService(tenantRepo, keyService)

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// Connect to the message broker and register topic producers
	adapter := broker.NewAdapter(log)
	if err := adapter.Connect(cfg.Broker.URL, cfg.Broker.ClientID); err != nil {
		log.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	for _, topic := range []string{
		broker.TopicSystemMetrics,
		broker.TopicSystemMetricsErrors,
		broker.TopicSystemMetricsDLQ,
	} {
		producer, err := adapter.NewProducer(topic)
		if err != nil {
			log.Fatal("Failed to create producer", zap.String("topic", topic), zap.Error(err))
		}
		adapter.AddProducer(topic, producer)
	}
	prometheus.SetBrokerConnected(adapter.IsConnected())
	log.Info("Message broker connected", zap.String("url", cfg.Broker.URL))

	// Optional in-process consumer for environments without a dedicated
	// processing service.
	if cfg.Broker.StartConsumer {
		_, err := adapter.Subscribe(broker.TopicSystemMetrics, cfg.Broker.ConsumerGroup,
			func(ctx context.Context, m *payload.SystemMetrics) error {
				log.Info("Metrics consumed",
					zap.String("tenant_id", m.Data.TenantID),
					zap.String("host", m.Data.Host.Hostname))
				return nil
			})
		if err != nil {
			log.Fatal("Failed to start metrics consumer", zap.Error(err))
		}
		log.Info("Metrics consumer started", zap.String("group", cfg.Broker.ConsumerGroup))
	}

	// Rate limiter: Redis when configured, in-memory otherwise
	var limiter ratelimit.Limiter
	if cfg.RateLimit.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.RequestsPerMinute)
		log.Info("Redis rate limiter enabled")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(userService, jwtUtil)
	userHandler := handler.NewUserHandler(userService)
	keyHandler := handler.NewAPIKeyHandler(keyService)
	teamHandler := handler.NewTeamHandler(teamService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	metricsHandler := handler.NewMetricsHandler(adapter)
	healthHandler := handler.NewHealthHandler(adapter)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	v1 := e.Group("/gateway/api/v1")

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// User routes - JWT protected
	users := v1.Group("/users", middleware.JWTAuth(jwtUtil))
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateMe)

	// API key management - JWT protected, self-or-admin enforced in handlers
	keys := users.Group("/:userId/api-keys")
	keys.POST("", keyHandler.Create)
	keys.GET("", keyHandler.List)
	keys.PUT("/:keyId/revoke", keyHandler.Revoke)
	keys.DELETE("/:keyId", keyHandler.Delete)
	keys.POST("/:keyId/rotate", keyHandler.Rotate)

	// Tenant administration - admin role required
	tenants := v1.Group("/tenants",
		middleware.JWTAuth(jwtUtil),
		middleware.RequireRole(model.RoleAdmin))
	tenants.POST("", tenantHandler.Create)
	tenants.GET("/:tenantId", tenantHandler.Get)
	tenants.PUT("/:tenantId/deactivate", tenantHandler.Deactivate)
	tenants.DELETE("/:tenantId", tenantHandler.Delete)

	// Metrics ingestion - API key authenticated agents
	ingest := v1.Group("/system/metrics",
		middleware.APIKeyAuth(keyService),
		middleware.TenantConsistency())
	if cfg.RateLimit.Enabled {
		ingest.Use(middleware.RateLimit(limiter))
	}
	ingest.POST("/ingest", metricsHandler.Ingest)

	// Team management - JWT protected with tenant context
	teams := e.Group("/gateway/api/teams",
		middleware.JWTAuth(jwtUtil),
		middleware.TenantConsistency())
	teams.POST("", teamHandler.Create)
	teams.GET("", teamHandler.List)
	teams.GET("/hierarchy", teamHandler.Hierarchy)
	teams.GET("/:teamId", teamHandler.Get)
	teams.PUT("/:teamId", teamHandler.Update)
	teams.DELETE("/:teamId", teamHandler.Delete)
	teams.POST("/:teamId/members", teamHandler.AddMember)
	teams.DELETE("/:teamId/members/:userId", teamHandler.RemoveMember)
	teams.PUT("/:teamId/members/:userId/role", teamHandler.UpdateMemberRole)

	// Start server in the background so signals can drive shutdown
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := adapter.Close(ctx); err != nil {
		log.Error("Broker shutdown failed", zap.Error(err))
	}
	log.Info("Gateway stopped")
}
