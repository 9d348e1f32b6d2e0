package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrec/gateway/internal/config"
	"github.com/medrec/gateway/internal/domain/adminops"
	"github.com/medrec/gateway/internal/domain/consent"
	"github.com/medrec/gateway/internal/domain/emr"
	"github.com/medrec/gateway/internal/domain/notification"
	"github.com/medrec/gateway/internal/domain/patient"
	"github.com/medrec/gateway/internal/domain/pin"
	"github.com/medrec/gateway/internal/domain/provider"
	"github.com/medrec/gateway/internal/guard"
	"github.com/medrec/gateway/internal/platform/cache"
	"github.com/medrec/gateway/internal/platform/db"
	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/kyc"
	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/internal/platform/metrics"
	"github.com/medrec/gateway/internal/platform/middleware"
	"github.com/medrec/gateway/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gateway-server",
		Short: "Patient record access gateway",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration; an unsafe configuration
// (delegation mode without identity verification, TLS without cert paths,
// missing KYC credentials) refuses to start rather than running degraded.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// consentNotifier fans consent events out to the principal's connected
// devices and into their notification inbox.
type consentNotifier struct {
	hub    *ws.Hub
	notif  *notification.Service
	logger zerolog.Logger
}

func (n *consentNotifier) Publish(principal string, event consent.Event) {
	n.hub.Publish(principal, event.Type, event)

	kind := notification.KindConsentClaimed
	title := "Consent code claimed"
	if event.Type == consent.EventRevoked {
		kind = notification.KindConsentRevoked
		title = "Consent session revoked"
	}
	// Inbox write is best effort; the websocket push already went out.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.notif.Notify(ctx, principal, kind, title, "Session "+event.SessionID); err != nil {
		n.logger.Warn().Str("principal", principal).Err(err).Msg("notification write failed")
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	sessionCache := cache.NewSessionCache(cache.NewRedisKVStore(redisClient))

	actor := ledger.NewClient(cfg.LedgerURL, cfg.LedgerTimeout, logger)
	verifier := kyc.NewClient(cfg.KYCBaseURL, cfg.KYCAuthMode, cfg.KYCBearerToken, cfg.KYCAPIKey, logger)

	hub := ws.NewHub(logger)

	// Domain services
	patientSvc := patient.NewService(actor, logger)
	emrSvc := emr.NewService(actor, logger)
	notifSvc := notification.NewService(notification.NewRepoPG(pool), hub, logger)
	consentSvc := consent.NewService(actor, sessionCache, consent.NewAuditRepoPG(pool), cfg.ConsentValidity, logger)
	consentSvc.SetNotifier(&consentNotifier{hub: hub, notif: notifSvc, logger: logger})
	providerSvc := provider.NewService(actor, logger)
	pinSvc := pin.NewService(pin.NewRepoPG(pool), logger)
	adminSvc := adminops.NewService(actor, verifier, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.ResolvedAuthMode() == "development" {
		logger.Warn().Msg("development auth mode: all requests run as a fixed principal")
		e.Use(identity.DevMiddleware())
	} else {
		e.Use(identity.Middleware(identity.Config{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	e.Use(middleware.RequestTimeout(30 * time.Second))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Routes gated on an approved patient profile.
	guarded := apiV1.Group("", guard.Middleware(patientSvc, logger))

	patient.NewHandler(patientSvc, verifier).RegisterRoutes(apiV1)
	emr.NewHandler(emrSvc).RegisterRoutes(guarded, apiV1)
	consent.NewHandler(consentSvc).RegisterRoutes(guarded, apiV1)
	provider.NewHandler(providerSvc).RegisterRoutes(apiV1)
	pin.NewHandler(pinSvc).RegisterRoutes(apiV1)
	adminops.NewHandler(adminSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notifSvc).RegisterRoutes(apiV1)
	ws.NewHandler(hub).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
		var serveErr error
		if cfg.TLSEnabled {
			serveErr = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			serveErr = e.Start(addr)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Fatal().Err(serveErr).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
