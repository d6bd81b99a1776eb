package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/kaamexpress/kaam-go/internal/repository"
)

type SnapshotRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SnapshotRepo) With(db DB) *SnapshotRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SnapshotRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert writes a complete snapshot as a new row. Prior snapshots are
// never updated; Latest picks the newest committed row, so readers only
// ever see whole documents.
func (r *SnapshotRepo) Insert(ctx context.Context, s *domain.AnalyticsSnapshot) error {
	const op = "postgres.SnapshotRepo.Insert"

	db := r.handle()

	monthlyBookings, err := json.Marshal(s.MonthlyBookings)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	monthlyRevenue, err := json.Marshal(s.MonthlyRevenue)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	serviceDist, err := json.Marshal(s.ServiceDistribution)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	workerStatus, err := json.Marshal(s.WorkerStatus)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	err = db.QueryRow(ctx,
		`INSERT INTO analytics_snapshots(id, total_users, total_workers, total_customers,
			total_bookings, total_revenue_paise, monthly_bookings, monthly_revenue,
			service_distribution, worker_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		s.ID, s.TotalUsers, s.TotalWorkers, s.TotalCustomers,
		s.TotalBookings, s.TotalRevenuePaise, monthlyBookings, monthlyRevenue,
		serviceDist, workerStatus,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Latest returns the most recently committed snapshot.
//
// Returns:
//   - error: repository.ErrNoSnapshot if no recompute has ever succeeded.
func (r *SnapshotRepo) Latest(ctx context.Context) (*domain.AnalyticsSnapshot, error) {
	const op = "postgres.SnapshotRepo.Latest"

	db := r.handle()

	var s domain.AnalyticsSnapshot
	var monthlyBookings, monthlyRevenue, serviceDist, workerStatus []byte

	err := db.QueryRow(ctx,
		`SELECT id, total_users, total_workers, total_customers, total_bookings,
			total_revenue_paise, monthly_bookings, monthly_revenue,
			service_distribution, worker_status, created_at
		 FROM analytics_snapshots
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	).Scan(
		&s.ID, &s.TotalUsers, &s.TotalWorkers, &s.TotalCustomers, &s.TotalBookings,
		&s.TotalRevenuePaise, &monthlyBookings, &monthlyRevenue,
		&serviceDist, &workerStatus, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s:%w", op, repository.ErrNoSnapshot)
		}
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := json.Unmarshal(monthlyBookings, &s.MonthlyBookings); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if err := json.Unmarshal(monthlyRevenue, &s.MonthlyRevenue); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if err := json.Unmarshal(serviceDist, &s.ServiceDistribution); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if err := json.Unmarshal(workerStatus, &s.WorkerStatus); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &s, nil
}
