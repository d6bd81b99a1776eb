package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaamexpress/kaam-go/internal/config"
	"github.com/kaamexpress/kaam-go/internal/postgres"
	"github.com/kaamexpress/kaam-go/internal/redis"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redisrepo "github.com/kaamexpress/kaam-go/internal/repository/redis"
	"github.com/kaamexpress/kaam-go/internal/scheduler"
	"github.com/kaamexpress/kaam-go/internal/service"
	"github.com/kaamexpress/kaam-go/internal/service/notification"
	httpgin "github.com/kaamexpress/kaam-go/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	services   *service.Services
	pubsub     *redisrepo.BookingsPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewBookingsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisrepo.KeyRateLimitPrefix(), 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, logger, service.Config{
		Notification: notification.Config{AdminID: cfg.Admin.PrincipalID},
	})

	sched := scheduler.New(store, services.Analytics, services.Notification, idempotencyStore, logger, scheduler.Config{
		RecomputeEvery: cfg.Scheduler.RecomputeEvery,
		ReminderEvery:  cfg.Scheduler.ReminderEvery,
		ReminderWindow: cfg.Scheduler.ReminderWindow,
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		scheduler: sched,
		services:  services,
		pubsub:    pubsub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	// Background jobs: analytics recompute + booking reminders
	g.Go(func() error {
		err := a.scheduler.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Cross-instance cache invalidation
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, bookingID, status string) {
			a.services.Analytics.InvalidateCache(ctx)
			a.logger.Debug("booking changed", "booking_id", bookingID, "status", status)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}
