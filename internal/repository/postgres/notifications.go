package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaamexpress/kaam-go/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *NotificationRepo) With(db DB) *NotificationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *NotificationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	const op = "postgres.NotificationRepo.Insert"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO notifications(id, recipient_id, type, message, read)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING created_at`,
		n.ID, n.RecipientID, n.Type, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	limit, offset int,
) ([]domain.Notification, error) {
	const op = "postgres.NotificationRepo.ListByRecipient"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, recipient_id, type, message, read, created_at
		 FROM notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		recipientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// MarkRead flips read=true for the given ids owned by the recipient.
// Ids owned by someone else (or unknown) are silently skipped. A single
// statement, so overlapping calls for one recipient serialize in the
// database.
func (r *NotificationRepo) MarkRead(
	ctx context.Context,
	recipientID uuid.UUID,
	ids []uuid.UUID,
) (int64, error) {
	const op = "postgres.NotificationRepo.MarkRead"

	if len(ids) == 0 {
		return 0, nil
	}

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE notifications
		 SET read = TRUE
		 WHERE recipient_id = $1 AND id = ANY($2) AND read = FALSE`,
		recipientID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

// Delete hard-deletes the recipient's notifications. Idempotent on ids
// that are already gone.
func (r *NotificationRepo) Delete(
	ctx context.Context,
	recipientID uuid.UUID,
	ids []uuid.UUID,
) (int64, error) {
	const op = "postgres.NotificationRepo.Delete"

	if len(ids) == 0 {
		return 0, nil
	}

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM notifications
		 WHERE recipient_id = $1 AND id = ANY($2)`,
		recipientID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}
