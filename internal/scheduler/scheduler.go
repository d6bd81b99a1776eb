package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kaamexpress/kaam-go/internal/domain"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redisrepo "github.com/kaamexpress/kaam-go/internal/repository/redis"
	"github.com/kaamexpress/kaam-go/internal/service/analytics"
	"github.com/kaamexpress/kaam-go/internal/service/booking"
	"github.com/robfig/cron/v3"
)

type Config struct {
	RecomputeEvery time.Duration
	ReminderEvery  time.Duration
	ReminderWindow time.Duration
}

// Scheduler drives the background cadences: periodic analytics
// recomputes and the booking reminder scan.
type Scheduler struct {
	cron      *cron.Cron
	store     *postgresrepo.Store
	analytics *analytics.Service
	notifier  booking.Notifier
	idem      *redisrepo.IdempotencyStore
	logger    *slog.Logger
	cfg       Config
}

func New(
	store *postgresrepo.Store,
	analyticsSvc *analytics.Service,
	notifier booking.Notifier,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	cfg Config,
) *Scheduler {
	if cfg.RecomputeEvery <= 0 {
		cfg.RecomputeEvery = 5 * time.Minute
	}

	if cfg.ReminderEvery <= 0 {
		cfg.ReminderEvery = 15 * time.Minute
	}

	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 24 * time.Hour
	}

	return &Scheduler{
		cron:      cron.New(),
		store:     store,
		analytics: analyticsSvc,
		notifier:  notifier,
		idem:      idem,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run registers the jobs and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	const op = "scheduler.Run"

	_, err := s.cron.AddFunc(every(s.cfg.RecomputeEvery), func() {
		s.recompute(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = s.cron.AddFunc(every(s.cfg.ReminderEvery), func() {
		s.scanReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"recompute_every", s.cfg.RecomputeEvery,
		"reminder_every", s.cfg.ReminderEvery,
		"reminder_window", s.cfg.ReminderWindow,
	)

	<-ctx.Done()

	// Let in-flight jobs finish before reporting shutdown.
	<-s.cron.Stop().Done()

	return ctx.Err()
}

func (s *Scheduler) recompute(ctx context.Context) {
	snap, err := s.analytics.Recompute(ctx, 0)
	if err != nil {
		// The prior snapshot stays authoritative; nothing to roll back.
		s.logger.Error("scheduled recompute failed", "error", err)
		return
	}

	s.logger.Info("analytics snapshot committed",
		"snapshot_id", snap.ID,
		"total_bookings", snap.TotalBookings,
	)
}

// scanReminders emits reminder notifications for bookings whose
// scheduled time falls within the window. A Redis SetNX mark keeps every
// booking to one reminder even across instances.
func (s *Scheduler) scanReminders(ctx context.Context) {
	due, err := s.store.Bookings().DueForReminder(ctx, s.cfg.ReminderWindow)
	if err != nil {
		s.logger.Error("reminder scan failed", "error", err)
		return
	}

	for _, b := range due {
		key := redisrepo.KeyReminderSent(b.ID.String())

		first, err := s.idem.MarkOnce(ctx, key, 2*s.cfg.ReminderWindow)
		if err != nil {
			s.logger.Error("reminder dedupe check failed", "booking_id", b.ID, "error", err)
			continue
		}
		if !first {
			continue
		}

		s.notifier.Dispatch(ctx, domain.BookingEvent{
			Kind:    domain.BookingEventReminderDue,
			Booking: b,
		})
	}
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
