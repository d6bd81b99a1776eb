package service

import (
	"log/slog"

	postgres "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redis "github.com/kaamexpress/kaam-go/internal/repository/redis"
	"github.com/kaamexpress/kaam-go/internal/service/analytics"
	"github.com/kaamexpress/kaam-go/internal/service/booking"
	"github.com/kaamexpress/kaam-go/internal/service/directory"
	"github.com/kaamexpress/kaam-go/internal/service/notification"
)

type Services struct {
	Booking      *booking.Service
	Analytics    *analytics.Service
	Notification *notification.Service
	Directory    *directory.Service
}

type Config struct {
	Booking      booking.Config
	Analytics    analytics.Config
	Notification notification.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.BookingsPubSub,
	limiter *redis.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	notif := notification.New(store, logger, cfg.Notification)

	return &Services{
		Booking:      booking.New(store, pubsub, limiter, notif, cfg.Booking),
		Analytics:    analytics.New(store, cache, cfg.Analytics),
		Notification: notif,
		Directory:    directory.New(store),
	}
}
