package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/kaamexpress/kaam-go/internal/repository"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redisrepo "github.com/kaamexpress/kaam-go/internal/repository/redis"
)

type Config struct {
	SnapshotTTL  time.Duration
	WindowMonths int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 30 * time.Second
	}

	if cfg.WindowMonths <= 0 {
		cfg.WindowMonths = 6
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// Recompute reads a consistent cut of the booking store and the worker
// and customer directories, builds a complete snapshot and commits it as
// a new document. All source reads share one repeatable-read read-only
// transaction: concurrent booking writes are not blocked, and the cut
// can never mix states.
//
// Parameters:
//   - ctx: request-scoped context.
//   - windowMonths: length of the monthly series; <= 0 uses the default.
//
// Returns:
//   - *domain.AnalyticsSnapshot: the committed snapshot.
//   - error: analytics.ErrAggregationFailed if any source read or the
//     snapshot write fails. Nothing is written in that case; the prior
//     snapshot stays the last known good value.
func (s *Service) Recompute(ctx context.Context, windowMonths int) (*domain.AnalyticsSnapshot, error) {
	const op = "service.analytics.Recompute"

	if windowMonths <= 0 {
		windowMonths = s.cfg.WindowMonths
	}

	var (
		facts          []domain.BookingFact
		workerStatus   map[string]int64
		totalCustomers int64
	)

	err := s.store.RunTx(ctx, &pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(ctx context.Context, tx postgresrepo.DB) error {
		var err error

		facts, err = s.store.Bookings().With(tx).Facts(ctx)
		if err != nil {
			return err
		}

		workerStatus, err = s.store.Directory().With(tx).CountWorkersByStatus(ctx)
		if err != nil {
			return err
		}

		totalCustomers, err = s.store.Directory().With(tx).CountCustomers(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w: %v", op, ErrAggregationFailed, err)
	}

	snap := Build(time.Now().UTC(), windowMonths, facts, workerStatus, totalCustomers)
	snap.ID = uuid.New()

	if err := s.store.Snapshots().Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("%s:%w: %v", op, ErrAggregationFailed, err)
	}

	// Refresh the cache so readers pick the new snapshot up immediately.
	// Best-effort: a miss just falls back to the database.
	_ = redisrepo.SetJSON(ctx, s.cache, redisrepo.KeySnapshotLatest(), snap, s.cfg.SnapshotTTL)

	return snap, nil
}

// Latest returns the most recently committed snapshot, served through
// the cache.
//
// Returns:
//   - error: analytics.ErrNoSnapshot if no recompute has ever succeeded.
func (s *Service) Latest(ctx context.Context) (*domain.AnalyticsSnapshot, error) {
	const op = "service.analytics.Latest"

	snap, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeySnapshotLatest(),
		s.cfg.SnapshotTTL,
		func(ctx context.Context) (domain.AnalyticsSnapshot, error) {
			latest, err := s.store.Snapshots().Latest(ctx)
			if err != nil {
				if errors.Is(err, repository.ErrNoSnapshot) {
					return domain.AnalyticsSnapshot{}, ErrNoSnapshot
				}
				return domain.AnalyticsSnapshot{}, err
			}
			return *latest, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &snap, nil
}

// InvalidateCache drops the cached snapshot. Called when another
// instance reports a change over pub/sub.
func (s *Service) InvalidateCache(ctx context.Context) {
	_ = s.cache.InvalidateSnapshot(ctx)
}
