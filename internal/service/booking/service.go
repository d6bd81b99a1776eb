package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/kaamexpress/kaam-go/internal/repository"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redisrepo "github.com/kaamexpress/kaam-go/internal/repository/redis"
	"github.com/kaamexpress/kaam-go/internal/uow"
)

// Notifier consumes booking events after the mutation has committed.
// Delivery is best-effort; implementations must never fail the caller.
type Notifier interface {
	Dispatch(ctx context.Context, ev domain.BookingEvent)
}

type Config struct {
	DefaultPage int
	MaxPage     int
}

type Service struct {
	store    *postgresrepo.Store
	pubsub   *redisrepo.BookingsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	notifier Notifier
	uow      *uow.UoW
	cfg      Config
}

func New(
	store *postgresrepo.Store,
	pubsub *redisrepo.BookingsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	notifier Notifier,
	cfg Config,
) *Service {
	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 50
	}

	if cfg.MaxPage <= 0 || cfg.MaxPage < cfg.DefaultPage {
		cfg.MaxPage = 200
	}

	return &Service{
		store:    store,
		pubsub:   pubsub,
		limiter:  limiter,
		notifier: notifier,
		uow:      uow.NewUoW(store),
		cfg:      cfg,
	}
}

type CreateParams struct {
	CustomerID  uuid.UUID
	WorkerID    uuid.UUID
	ServiceID   int64
	ScheduledAt time.Time
	AmountPaise int64
}

// Create validates the request against the catalog and directories and
// inserts a new pending booking.
//
// Parameters:
//   - ctx: request-scoped context.
//   - p: booking fields; amount in minor currency units.
//   - rlKey: rate-limit bucket key, empty to skip limiting.
//
// Returns:
//   - *domain.Booking: the created booking, status pending, unpaid.
//   - error: booking.ValidationError for negative amount or a schedule in
//     the past; booking.ErrServiceNotFound / ErrServiceInactive /
//     ErrWorkerNotFound / ErrCustomerNotFound for bad references;
//     booking.ErrRateLimited when the bucket is exhausted.
func (s *Service) Create(ctx context.Context, p CreateParams, rlKey string) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if p.AmountPaise < 0 {
		return nil, ValidationError{Field: "amount", Reason: "must be non-negative"}
	}

	if p.ScheduledAt.Before(time.Now()) {
		return nil, ValidationError{Field: "scheduled_at", Reason: "must not be in the past"}
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	var b *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		dir := s.store.Directory().With(tx)

		svc, err := dir.GetService(ctx, p.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrServiceNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !svc.IsActive {
			return fmt.Errorf("%s:%w", op, ErrServiceInactive)
		}

		if _, err := dir.GetWorker(ctx, p.WorkerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrWorkerNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if _, err := dir.GetCustomer(ctx, p.CustomerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrCustomerNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		b = &domain.Booking{
			ID:          uuid.New(),
			CustomerID:  p.CustomerID,
			WorkerID:    p.WorkerID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			ScheduledAt: p.ScheduledAt,
			Status:      domain.BookingPending,
			AmountPaise: p.AmountPaise,
			IsPaid:      false,
		}

		if err := s.store.Bookings().With(tx).Create(ctx, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.notifier.Dispatch(ctx, domain.BookingEvent{
				Kind:    domain.BookingEventCreated,
				Booking: *b,
			})
			_ = s.pubsub.PublishBookingChanged(ctx, b.ID.String(), string(b.Status))
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// UpdateStatus applies a status transition.
//
// Returns:
//   - *domain.Booking: the booking after the transition.
//   - error: booking.ErrBookingNotFound, booking.ErrInvalidTransition (the
//     booking is unchanged), or booking.ErrConflict when a concurrent
//     writer won; the caller retries after re-reading state.
func (s *Service) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	to domain.BookingStatus,
) (*domain.Booking, error) {
	return s.transition(ctx, "service.booking.UpdateStatus", id, to, nil)
}

// Cancel is the party-facing shorthand for a transition to cancelled,
// limited to pending and in-progress bookings. A disputed booking is only
// cancelled by an admin resolving it through UpdateStatus.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.transition(ctx, "service.booking.Cancel", id, domain.BookingCancelled,
		func(from domain.BookingStatus) error {
			if from == domain.BookingDispute {
				return ErrInvalidTransition
			}
			return nil
		})
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	id uuid.UUID,
	to domain.BookingStatus,
	guard func(from domain.BookingStatus) error,
) (*domain.Booking, error) {
	var b *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		repo := s.store.Bookings().With(tx)

		if guard != nil {
			cur, err := repo.Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
				}
				return fmt.Errorf("%s:%w", op, err)
			}
			if err := guard(cur.Status); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		ub, err := repo.UpdateStatus(ctx, id, to)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			case errors.Is(err, repository.ErrInvalidTransition):
				return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
			case errors.Is(err, repository.ErrConflict):
				return fmt.Errorf("%s:%w", op, ErrConflict)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		b = ub

		after(func(ctx context.Context) {
			s.notifier.Dispatch(ctx, domain.BookingEvent{
				Kind:    domain.BookingEventStatusChanged,
				Booking: *b,
			})
			_ = s.pubsub.PublishBookingChanged(ctx, b.ID.String(), string(b.Status))
		})

		return nil
	})
	if err != nil {
		// Serialization failures at commit time are the same race as a
		// missed version check.
		if postgresrepo.IsRetryable(err) {
			return nil, fmt.Errorf("%s:%w", op, ErrConflict)
		}
		return nil, err
	}

	return b, nil
}

// RecordPayment marks the booking paid. Idempotent: a repeat call is a
// no-op, not an error, and emits no second event.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.RecordPayment"

	var b *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ub, changed, err := s.store.Bookings().With(tx).RecordPayment(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		b = ub

		if changed {
			after(func(ctx context.Context) {
				s.notifier.Dispatch(ctx, domain.BookingEvent{
					Kind:    domain.BookingEventPaymentRecorded,
					Booking: *b,
				})
				_ = s.pubsub.PublishBookingChanged(ctx, b.ID.String(), string(b.Status))
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Get retrieves a booking by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// List returns bookings matching the filter, newest first.
func (s *Service) List(ctx context.Context, f postgresrepo.BookingFilter) ([]domain.Booking, error) {
	const op = "service.booking.List"

	if f.Limit <= 0 {
		f.Limit = s.cfg.DefaultPage
	}
	if f.Limit > s.cfg.MaxPage {
		f.Limit = s.cfg.MaxPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	out, err := s.store.Bookings().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
