package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/kaamexpress/kaam-go/internal/repository"
)

const bookingColumns = `id, customer_id, worker_id, service_id, service_name,
	scheduled_at, status, amount_paise, is_paid, version, created_at, updated_at`

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts a new booking row. The caller is responsible for setting
// the initial status; version starts at 1.
//
// Returns:
//   - error: repository.ErrConflict if a booking with the same ID exists.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO bookings(id, customer_id, worker_id, service_id, service_name,
			scheduled_at, status, amount_paise, is_paid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING version, created_at, updated_at`,
		b.ID, b.CustomerID, b.WorkerID, b.ServiceID, b.ServiceName,
		b.ScheduledAt, b.Status, b.AmountPaise, b.IsPaid,
	).Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

type BookingFilter struct {
	CustomerID *uuid.UUID
	WorkerID   *uuid.UUID
	Status     *domain.BookingStatus
	Limit      int
	Offset     int
}

// List returns bookings matching the filter, most recently created first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.List"

	db := r.handle()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}

	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.WorkerID != nil {
		args = append(args, *f.WorkerID)
		query += fmt.Sprintf(" AND worker_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// UpdateStatus applies a status transition under an optimistic version
// check. The transition is validated against the domain table while the
// current row is visible inside the transaction, so a losing concurrent
// writer either observes the new state (invalid transition) or misses the
// version (conflict).
//
// Returns:
//   - *domain.Booking: the updated booking.
//   - error: repository.ErrNotFound if the booking does not exist.
//   - error: repository.ErrInvalidTransition if the state machine forbids it.
//   - error: repository.ErrConflict if a concurrent writer won the race.
func (r *BookingRepo) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	to domain.BookingStatus,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.UpdateStatus"

	if r.db != nil {
		b, err := r.updateStatusCore(ctx, r.db, id, to)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return b, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	b, err := r.updateStatusCore(ctx, tx, id, to)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

func (r *BookingRepo) updateStatusCore(
	ctx context.Context,
	db DB,
	id uuid.UUID,
	to domain.BookingStatus,
) (*domain.Booking, error) {
	var current domain.BookingStatus
	var version int64

	err := db.QueryRow(ctx,
		`SELECT status, version FROM bookings WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&current, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if !domain.CanTransition(current, to) {
		return nil, repository.ErrInvalidTransition
	}

	b, err := scanBooking(db.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $3
		 RETURNING `+bookingColumns,
		id, to, version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}

	return b, nil
}

// RecordPayment marks the booking paid. Idempotent: a second call leaves
// the row untouched and reports changed=false.
//
// Returns:
//   - *domain.Booking: the booking after the call.
//   - bool: whether this call flipped the flag.
//   - error: repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) RecordPayment(ctx context.Context, id uuid.UUID) (*domain.Booking, bool, error) {
	const op = "postgres.BookingRepo.RecordPayment"

	db := r.handle()

	b, err := scanBooking(db.QueryRow(ctx,
		`UPDATE bookings
		 SET is_paid = TRUE, version = version + 1, updated_at = now()
		 WHERE id = $1 AND is_paid = FALSE
		 RETURNING `+bookingColumns,
		id,
	))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	// Already paid or missing; re-read to tell the two apart.
	b, err = scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	))
	if err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, false, nil
}

// Facts returns the aggregation slice of every booking regardless of
// status. Run inside a read-only transaction for a consistent cut.
func (r *BookingRepo) Facts(ctx context.Context) ([]domain.BookingFact, error) {
	const op = "postgres.BookingRepo.Facts"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT status, amount_paise, scheduled_at, service_name FROM bookings`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingFact
	for rows.Next() {
		var f domain.BookingFact
		if err := rows.Scan(&f.Status, &f.AmountPaise, &f.ScheduledAt, &f.ServiceName); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// DueForReminder returns active bookings scheduled within the window.
func (r *BookingRepo) DueForReminder(ctx context.Context, window time.Duration) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.DueForReminder"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE status IN ('pending', 'in-progress')
		   AND scheduled_at > now()
		   AND scheduled_at <= now() + $1
		 ORDER BY scheduled_at`,
		window,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.WorkerID,
		&b.ServiceID,
		&b.ServiceName,
		&b.ScheduledAt,
		&b.Status,
		&b.AmountPaise,
		&b.IsPaid,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
