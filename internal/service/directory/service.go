package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/kaamexpress/kaam-go/internal/repository"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	"github.com/kaamexpress/kaam-go/internal/uow"
)

// Service manages the collaborator collections the booking core reads:
// the service catalog and the worker/customer directories.
type Service struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func New(store *postgresrepo.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// CreateService adds a catalog entry, active by default.
//
// Returns:
//   - error: directory.ErrServiceConflict if the name is taken.
func (s *Service) CreateService(ctx context.Context, name, category string, basePaise int64) (*domain.Service, error) {
	const op = "service.directory.CreateService"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if basePaise < 0 {
		return nil, ValidationError{Field: "base_paise", Reason: "must be non-negative"}
	}

	svc := &domain.Service{
		Name:      name,
		Category:  category,
		BasePaise: basePaise,
		IsActive:  true,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Directory().With(tx).CreateService(ctx, svc); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrServiceConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *Service) ListServices(ctx context.Context) ([]domain.Service, error) {
	const op = "service.directory.ListServices"

	out, err := s.store.Directory().ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// RegisterWorker adds a worker in the pending state; approval is a
// separate admin action.
func (s *Service) RegisterWorker(ctx context.Context, name, phone string) (*domain.Worker, error) {
	const op = "service.directory.RegisterWorker"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Reason: "must not be empty"}
	}

	w := &domain.Worker{
		ID:     uuid.New(),
		Name:   name,
		Phone:  phone,
		Status: domain.WorkerPending,
	}

	if err := s.store.Directory().CreateWorker(ctx, w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return w, nil
}

// ApproveWorker moves a worker to approved.
//
// Returns:
//   - error: directory.ErrWorkerNotFound if no such worker exists.
func (s *Service) ApproveWorker(ctx context.Context, id uuid.UUID) (*domain.Worker, error) {
	const op = "service.directory.ApproveWorker"

	w, err := s.store.Directory().ApproveWorker(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrWorkerNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return w, nil
}

// RegisterCustomer adds a customer directory entry.
func (s *Service) RegisterCustomer(ctx context.Context, name, phone, email string) (*domain.Customer, error) {
	const op = "service.directory.RegisterCustomer"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Reason: "must not be empty"}
	}

	c := &domain.Customer{
		ID:    uuid.New(),
		Name:  name,
		Phone: phone,
		Email: email,
	}

	if err := s.store.Directory().CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrCustomerConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}
