package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/config"
	"github.com/vishlist/vishlist-backend/internal/email"
	"github.com/vishlist/vishlist-backend/internal/handler"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/repository/postgres"
	"github.com/vishlist/vishlist-backend/internal/service"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Apply migrations
	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations applied")

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	wishlistRepo := postgres.NewWishlistRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	claimRepo := postgres.NewClaimRepository(pool)

	// Realtime hub
	hub := websocket.NewHub()

	// Outbound mail
	var mailer service.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		log.Warn().Msg("RESEND_API_KEY not set, recovery emails will be logged only")
		mailer = &email.LogMailer{}
	}

	// Initialize services
	tokenService := service.NewTokenService(cfg.SecretKey)
	authService := service.NewAuthService(userRepo, tokenService)
	wishlistService := service.NewWishlistService(wishlistRepo, itemRepo, hub)
	itemService := service.NewItemService(itemRepo, wishlistRepo, hub)
	claimService := service.NewClaimService(claimRepo, itemRepo, wishlistRepo, hub)
	publicService := service.NewPublicService(wishlistRepo, itemRepo, claimRepo, userRepo)
	recoveryService := service.NewRecoveryService(wishlistRepo, claimRepo, tokenService, mailer, cfg.FrontendURL, !cfg.IsProduction())

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	wishlistHandler := handler.NewWishlistHandler(wishlistService)
	itemHandler := handler.NewItemHandler(itemService)
	publicHandler := handler.NewPublicHandler(publicService)
	claimHandler := handler.NewClaimHandler(claimService, recoveryService)
	wsHandler := handler.NewWebSocketHandler(hub, wishlistRepo, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.GuestTokenHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, wishlistHandler, itemHandler, publicHandler, claimHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
