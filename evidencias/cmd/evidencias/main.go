package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/transvepo/evidencias-stack/common/logging"
	natsclient "github.com/transvepo/evidencias-stack/common/messaging/nats"
	"github.com/transvepo/evidencias-stack/evidencias/internal/alert"
	"github.com/transvepo/evidencias-stack/evidencias/internal/auth"
	"github.com/transvepo/evidencias-stack/evidencias/internal/carrier"
	"github.com/transvepo/evidencias-stack/evidencias/internal/config"
	"github.com/transvepo/evidencias-stack/evidencias/internal/events"
	"github.com/transvepo/evidencias-stack/evidencias/internal/handlers"
	"github.com/transvepo/evidencias-stack/evidencias/internal/ratelimit"
	"github.com/transvepo/evidencias-stack/evidencias/internal/repository"
	"github.com/transvepo/evidencias-stack/evidencias/internal/server"
	"github.com/transvepo/evidencias-stack/evidencias/internal/service"
	"github.com/transvepo/evidencias-stack/evidencias/migrations"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("evidencias"))
	logging.SetDefault(logger)

	slog.Info("Starting evidencias service",
		slog.Int("port", cfg.Server.Port),
		slog.String("database_backend", cfg.Database.Backend),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx := context.Background()

	// Initialize record store
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize record store", err)
	}
	defer repo.Close()

	// Load operator -> carrier mapping
	carriers, err := loadCarriers(cfg.Carriers)
	if err != nil {
		fatal("Failed to load carrier map", err)
	}
	slog.Info("Carrier map loaded", slog.Int("operators", carriers.Len()))

	// Initialize lifecycle event publishing
	var publisher events.Publisher = events.NoopPublisher{}
	var bus *natsclient.Client
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Logger = logger.Logger
		bus, err = natsclient.NewClient(natsCfg)
		if err != nil {
			slog.Warn("Failed to connect to NATS, lifecycle events disabled", logging.Error(err))
			bus = nil
		} else {
			defer bus.Close()
			publisher = events.NewBusPublisher(bus, logger)
			slog.Info("Lifecycle events enabled", slog.String("nats_url", cfg.NATS.URL))
		}
	}

	// Initialize webhook rate limiter
	var limiter ratelimit.RateLimiter = &ratelimit.NoOpRateLimiter{}
	if cfg.RateLimit.Enabled {
		redisLimiter, err := ratelimit.NewRedisRateLimiterFromURL(ctx, cfg.Redis.URL, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			slog.Warn("Failed to initialize Redis rate limiter, continuing without rate limiting", logging.Error(err))
		} else {
			limiter = redisLimiter
			slog.Info("Webhook rate limiting enabled",
				slog.Int("requests", cfg.RateLimit.Requests),
				slog.Duration("window", cfg.RateLimit.Window),
			)
		}
	}
	defer limiter.Close()

	// Initialize operator API authentication
	var validator auth.Validator
	if cfg.Auth.JWTSecret != "" {
		tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret)
		if err != nil {
			fatal("Failed to initialize token manager", err)
		}
		validator = tokens
		slog.Info("Operator API authentication enabled")
	} else {
		slog.Warn("auth.jwt_secret not set, operator API is unauthenticated")
	}

	// Initialize services
	ingestSvc := service.NewIngestService(repo, carriers,
		service.WithGate(service.NewMarkerGate(cfg.Ingestion.AcceptedMarkers...)),
		service.WithIngestPublisher(publisher),
		service.WithIngestLogger(logger),
	)
	orderSvc := service.NewOrderService(repo,
		service.WithPolicy(alert.Policy{PendingDays: cfg.Alerts.PendingDays}),
		service.WithOrderPublisher(publisher),
		service.WithOrderLogger(logger),
	)

	// Initialize handlers and router
	handlerOpts := []handlers.Option{
		handlers.WithRateLimiter(limiter),
		handlers.WithLogger(logger),
		handlers.WithMaxBodyBytes(cfg.Ingestion.MaxBodyBytes),
	}
	if bus != nil {
		handlerOpts = append(handlerOpts, handlers.WithEventBus(bus))
	}
	handler := handlers.NewHandler(ingestSvc, orderSvc, handlerOpts...)
	router := server.NewRouter(handler, server.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Auth:           validator,
		Logger:         logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Evidencias service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("Shutting down server", slog.String("signal", sig.String()))
	case err := <-errCh:
		slog.Error("Server error", logging.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", logging.Error(err))
		return
	}

	if bus != nil {
		if err := bus.Flush(shutdownCtx); err != nil {
			slog.Warn("Failed to flush pending lifecycle events", logging.Error(err))
		}
	}

	slog.Info("Server stopped gracefully")
}

// openRepository builds the configured record store. PostgreSQL is migrated
// before use and wrapped with latency metrics.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	if cfg.Database.Backend == config.BackendMemory {
		slog.Warn("Using in-memory record store, records are lost on restart")
		return repository.NewMemoryRepository(nil), nil
	}

	pg := cfg.Database.Postgres
	connString := pg.ConnString()

	slog.Info("Running database migrations")
	if err := migrations.Up(connString); err != nil {
		return nil, err
	}
	slog.Info("Database migrations completed")

	repo, err := repository.NewPostgresRepository(ctx, connString, repository.PoolOptions{
		MaxConns:        pg.MaxConns,
		MinConns:        pg.MinConns,
		MaxConnLifetime: pg.MaxConnLifetime,
		MaxConnIdleTime: pg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	return repository.NewInstrumentedRepository(repo), nil
}

// loadCarriers merges the carrier file with inline config entries. A missing
// file is tolerated; unmapped operators resolve to carrier.Unknown.
func loadCarriers(cfg config.CarriersConfig) (*carrier.Resolver, error) {
	fromFile := map[string]string{}
	if cfg.File != "" {
		mapping, err := carrier.LoadFile(cfg.File)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn("Carrier map file not found", slog.String("path", cfg.File))
		case err != nil:
			return nil, err
		default:
			fromFile = mapping
		}
	}
	return carrier.NewResolver(carrier.Merge(fromFile, cfg.Inline())), nil
}

func fatal(msg string, err error) {
	slog.Error(msg, logging.Error(err))
	os.Exit(1)
}
