package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ozzus/fan-stay/grpcapp"
	"github.com/ozzus/fan-stay/internal/application/booking"
	"github.com/ozzus/fan-stay/internal/application/favorites"
	"github.com/ozzus/fan-stay/internal/application/pricing"
	"github.com/ozzus/fan-stay/internal/application/rates"
	"github.com/ozzus/fan-stay/internal/application/search"
	"github.com/ozzus/fan-stay/internal/application/sideeffects"
	"github.com/ozzus/fan-stay/internal/config"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	bookingapi "github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/http/client"
	postgres "github.com/ozzus/fan-stay/internal/infrastructures/db/postgres/repo"
	cacheredis "github.com/ozzus/fan-stay/internal/infrastructures/db/redis"
	staytracing "github.com/ozzus/fan-stay/internal/infrastructures/db/tracing"
	"github.com/ozzus/fan-stay/internal/transport/http/handlers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	tp, err := staytracing.InitTracer("fan-stay", cfg.Jaeger)
	if err != nil {
		log.Fatal("failed to init tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	log.Info("fan-stay starting",
		zap.String("env", cfg.Env),
		zap.String("http_addr", cfg.HTTP.Address()),
		zap.String("booking_api", cfg.BookingAPI.BaseURL),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	remote := bookingapi.NewClient(cfg.BookingAPI.BaseURL, cfg.BookingAPI.Token, cfg.BookingAPI.Timeout)

	redisCheck := func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	bookingChecks := map[string]grpcapp.Check{"booking_api": remote.Ping}

	var sessions ports.SessionRepository
	if cfg.DB.Enabled() {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		repo, err := postgres.New(initCtx, cfg.DB.DatabaseURL())
		cancel()
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer repo.Close()
		sessions = repo
		bookingChecks["postgres"] = repo.Ping
	} else {
		log.Warn("db is not configured, booking sessions are kept in memory only")
	}

	reconciler := pricing.NewReconciler(cfg.Pricing.CommissionBps)
	coordinator := sideeffects.NewCoordinator(log, remote, remote, cfg.Quests.FirstBookingTag)
	orchestrator := booking.NewOrchestrator(log, remote, remote, reconciler, sessions, coordinator)
	ratesService := rates.NewService(log, remote, remote, cacheredis.NewRatesCacheRepository(redisClient), cfg.Rates.CacheTTL)
	registry := search.NewRegistry(log, remote, remote, cacheredis.NewQueryCache(redisClient), cfg.Search.LastQueryTTL)
	favoritesService := favorites.NewService(log, remote)

	router := handlers.NewRouter(log, handlers.Handlers{
		Search:  handlers.NewSearchHandler(log, registry, favoritesService),
		Rooms:   handlers.NewRoomsHandler(log, ratesService, reconciler),
		Booking: handlers.NewBookingHandler(log, orchestrator),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcApp := grpcapp.New(log, cfg.GRPC.Host, cfg.GRPC.Port,
		grpcapp.Component{Service: "fan-stay.search", Checks: map[string]grpcapp.Check{
			"redis":       redisCheck,
			"booking_api": remote.Ping,
		}},
		grpcapp.Component{Service: "fan-stay.rates", Checks: map[string]grpcapp.Check{
			"redis":       redisCheck,
			"booking_api": remote.Ping,
		}},
		grpcapp.Component{Service: "fan-stay.booking", Checks: bookingChecks},
	)

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := grpcApp.Run(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go grpcApp.WatchReadiness(ctx, cfg.GRPC.ReadinessInterval)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown HTTP server", zap.Error(err))
	}
	grpcApp.Stop()
}

func setupLogger(level string) *zap.Logger {
	zapLevel := parseLogLevel(level)
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return log
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
