package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaamexpress/kaam-go/internal/domain"
)

// DirectoryRepo covers the collaborator collections: the service catalog
// and the worker/customer directories. The booking core only ever reads
// these; writes come from the admin surface.
type DirectoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *DirectoryRepo) With(db DB) *DirectoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *DirectoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateService inserts a catalog entry.
//
// Returns:
//   - error: repository.ErrConflict if a service with the same name exists.
func (r *DirectoryRepo) CreateService(ctx context.Context, s *domain.Service) error {
	const op = "postgres.DirectoryRepo.CreateService"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO services(name, category, base_paise, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.Name, s.Category, s.BasePaise, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// GetService retrieves a catalog entry by ID.
//
// Returns:
//   - error: repository.ErrNotFound if no such service exists.
func (r *DirectoryRepo) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	const op = "postgres.DirectoryRepo.GetService"

	db := r.handle()

	var s domain.Service
	err := db.QueryRow(ctx,
		`SELECT id, name, category, base_paise, is_active, created_at
		 FROM services WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.Category, &s.BasePaise, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &s, nil
}

func (r *DirectoryRepo) ListServices(ctx context.Context) ([]domain.Service, error) {
	const op = "postgres.DirectoryRepo.ListServices"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name, category, base_paise, is_active, created_at
		 FROM services ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.BasePaise, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *DirectoryRepo) CreateWorker(ctx context.Context, w *domain.Worker) error {
	const op = "postgres.DirectoryRepo.CreateWorker"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO workers(id, name, phone, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		w.ID, w.Name, w.Phone, w.Status,
	).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *DirectoryRepo) GetWorker(ctx context.Context, id uuid.UUID) (*domain.Worker, error) {
	const op = "postgres.DirectoryRepo.GetWorker"

	db := r.handle()

	var w domain.Worker
	err := db.QueryRow(ctx,
		`SELECT id, name, phone, status, created_at FROM workers WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.Name, &w.Phone, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &w, nil
}

// ApproveWorker moves a worker to the approved state.
//
// Returns:
//   - error: repository.ErrNotFound if no such worker exists.
func (r *DirectoryRepo) ApproveWorker(ctx context.Context, id uuid.UUID) (*domain.Worker, error) {
	const op = "postgres.DirectoryRepo.ApproveWorker"

	db := r.handle()

	var w domain.Worker
	err := db.QueryRow(ctx,
		`UPDATE workers SET status = 'approved' WHERE id = $1
		 RETURNING id, name, phone, status, created_at`,
		id,
	).Scan(&w.ID, &w.Name, &w.Phone, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &w, nil
}

func (r *DirectoryRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	const op = "postgres.DirectoryRepo.CreateCustomer"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO customers(id, name, phone, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		c.ID, c.Name, c.Phone, c.Email,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *DirectoryRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	const op = "postgres.DirectoryRepo.GetCustomer"

	db := r.handle()

	var c domain.Customer
	err := db.QueryRow(ctx,
		`SELECT id, name, phone, email, created_at FROM customers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &c, nil
}

// CountWorkersByStatus groups the worker directory by approval state.
func (r *DirectoryRepo) CountWorkersByStatus(ctx context.Context) (map[string]int64, error) {
	const op = "postgres.DirectoryRepo.CountWorkersByStatus"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT status, COUNT(*) FROM workers GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *DirectoryRepo) CountCustomers(ctx context.Context) (int64, error) {
	const op = "postgres.DirectoryRepo.CountCustomers"

	db := r.handle()

	var n int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}
