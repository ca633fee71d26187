// Package main is the entry point for the tour booking API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/tour-booking/internal/auth"
	"github.com/pkordes/tour-booking/internal/cache"
	"github.com/pkordes/tour-booking/internal/config"
	"github.com/pkordes/tour-booking/internal/handler"
	"github.com/pkordes/tour-booking/internal/middleware"
	"github.com/pkordes/tour-booking/internal/notify"
	"github.com/pkordes/tour-booking/internal/repo"
	"github.com/pkordes/tour-booking/internal/service"
	"github.com/pkordes/tour-booking/migrations"
)

// notifyTimeout bounds a single background notice delivery.
const notifyTimeout = 10 * time.Second

func main() {
	// --- Config -----------------------------------------------------------
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	// --- Notifications ----------------------------------------------------
	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		slog.Error("failed to set up notifications", "error", err)
		os.Exit(1)
	}
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, notifyTimeout, logger)

	// --- Services ---------------------------------------------------------
	txRunner := repo.NewTxRunner(pool, cfg.TxMaxAttempts, logger)
	tourRepo := repo.NewTourRepo(pool)

	var calendarCache service.CalendarCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		calendarCache = cache.NewRedisCalendarCache(client, cfg.CalendarCacheTTL)
		slog.Info("calendar cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CalendarCacheTTL.String())
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AdminTokenTTL)
	if cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH not set, operator login disabled")
	}

	srv := handler.NewServer(handler.Services{
		Booking: service.NewBookingService(txRunner, dispatcher, service.BookingConfig{
			SeatUpcharge: cfg.SeatUpcharge,
			Location:     cfg.Location,
		}),
		Calendar:     service.NewCalendarService(tourRepo, calendarCache, cfg.Location, logger),
		Tours:        service.NewTourService(tourRepo, txRunner),
		Pickups:      service.NewPickupService(repo.NewPickupRepo(pool)),
		Profiles:     service.NewProfileService(repo.NewProfileRepo(pool)),
		Reservations: service.NewReservationService(repo.NewReservationRepo(pool)),
		Auth:         auth.NewOperator(issuer, cfg.AdminPasswordHash),
		Tokens:       issuer,
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	// In-flight notices finish after the last request has committed.
	dispatcher.Close()
	slog.Info("server stopped")
}

// migrate applies pending goose migrations through a database/sql view of the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration.String())
	}
	return nil
}

// newNotifier picks the delivery path: queue when AMQP_URL is set, direct
// LINE push when a channel token is set, logging otherwise.
func newNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, func(), error) {
	switch {
	case cfg.AMQPURL != "":
		q := notify.NewQueueNotifier(notify.QueueDialer(cfg.AMQPURL, cfg.NotifyQueue), cfg.NotifyQueue)
		if err := q.Connect(); err != nil {
			return nil, nil, err
		}
		slog.Info("notices routed through queue", "queue", cfg.NotifyQueue)
		return q, func() { _ = q.Close() }, nil
	case cfg.LineChannelToken != "":
		client := &http.Client{Timeout: notifyTimeout}
		return notify.NewLineClient(cfg.LineAPIURL, cfg.LineChannelToken, client), func() {}, nil
	default:
		slog.Warn("no AMQP_URL or LINE_CHANNEL_TOKEN, notices are only logged")
		return notify.LogNotifier{Log: logger}, func() {}, nil
	}
}
