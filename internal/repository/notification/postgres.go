package notification

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
)

const notificationColumns = `id, type, priority, title, message, is_read, COALESCE(related_entity_id, 0), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("notification_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	const q = `
INSERT INTO notifications (type, priority, title, message, related_entity_id)
VALUES ($1, $2, $3, $4, NULLIF($5::bigint, 0))
RETURNING ` + notificationColumns
	out, err := scanNotification(r.pool.QueryRow(ctx, q, string(n.Type), string(n.Priority), n.Title, n.Message, n.RelatedEntityID))
	if err != nil {
		r.logger.Error("create failed", zap.String("type", string(n.Type)), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Notification, error) {
	const q = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE ($1::boolean IS NULL OR is_read = $1)
  AND ($2 = '' OR type = $2)
ORDER BY created_at DESC, id DESC
OFFSET $3 LIMIT $4
`
	rows, err := r.pool.Query(ctx, q, f.IsRead, string(f.Type), f.Skip, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) UnreadCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&n)
	return n, err
}

func (r *postgresRepo) SetRead(ctx context.Context, id int64, read bool) (*domain.Notification, error) {
	const q = `UPDATE notifications SET is_read = $2 WHERE id = $1 RETURNING ` + notificationColumns
	out, err := scanNotification(r.pool.QueryRow(ctx, q, id, read))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return out, err
}

func (r *postgresRepo) MarkAllRead(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ExistsSince(ctx context.Context, t domain.NotificationType, entityID int64, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM notifications
    WHERE type = $1 AND related_entity_id = $2 AND created_at >= $3
)`, string(t), entityID, since).Scan(&exists)
	return exists, err
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n              domain.Notification
		kind, priority string
	)
	if err := row.Scan(&n.ID, &kind, &priority, &n.Title, &n.Message, &n.IsRead, &n.RelatedEntityID, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(kind)
	n.Priority = domain.NotificationPriority(priority)
	return &n, nil
}
