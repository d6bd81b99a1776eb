package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
)

type Config struct {
	// AdminID receives system notifications for disputes. Zero value
	// disables the admin route.
	AdminID     uuid.UUID
	DefaultPage int
	MaxPage     int
}

type Service struct {
	store  *postgresrepo.Store
	logger *slog.Logger
	cfg    Config
}

func New(store *postgresrepo.Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 50
	}

	if cfg.MaxPage <= 0 || cfg.MaxPage < cfg.DefaultPage {
		cfg.MaxPage = 200
	}

	return &Service{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Dispatch resolves the policy table for the event and persists one
// notification per route. Failures are logged and swallowed: the booking
// mutation that triggered the event has already committed and must not
// be rolled back by a delivery problem.
func (s *Service) Dispatch(ctx context.Context, ev domain.BookingEvent) {
	for _, rt := range routesFor(ev, s.cfg.AdminID) {
		if err := s.Notify(ctx, rt.recipient, rt.typ, rt.message); err != nil {
			s.logger.Error("notification dispatch failed",
				"kind", string(ev.Kind),
				"booking_id", ev.Booking.ID,
				"recipient", rt.recipient,
				"error", err,
			)
		}
	}
}

// Notify creates a single unread notification.
func (s *Service) Notify(
	ctx context.Context,
	recipientID uuid.UUID,
	typ domain.NotificationType,
	message string,
) error {
	const op = "service.notification.Notify"

	n := &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        typ,
		Message:     message,
		Read:        false,
	}

	if err := s.store.Notifications().Insert(ctx, n); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// List returns the recipient's notifications, most recent first.
func (s *Service) List(
	ctx context.Context,
	recipientID uuid.UUID,
	limit, offset int,
) ([]domain.Notification, error) {
	const op = "service.notification.List"

	if limit <= 0 {
		limit = s.cfg.DefaultPage
	}
	if limit > s.cfg.MaxPage {
		limit = s.cfg.MaxPage
	}
	if offset < 0 {
		offset = 0
	}

	out, err := s.store.Notifications().ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// MarkRead sets read=true on the caller's notifications. Ids owned by a
// different recipient are ignored, not an error.
//
// Returns:
//   - int64: how many rows actually flipped.
func (s *Service) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) (int64, error) {
	const op = "service.notification.MarkRead"

	n, err := s.store.Notifications().MarkRead(ctx, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// Delete removes the caller's notifications. Idempotent on ids already
// deleted.
func (s *Service) Delete(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) (int64, error) {
	const op = "service.notification.Delete"

	n, err := s.store.Notifications().Delete(ctx, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}
