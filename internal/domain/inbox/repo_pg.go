package inbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/db"
	"github.com/homecare/homecare/internal/platform/notification"
)

type notificationRepoPG struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const notificationCols = `notification_id, user_id, title, message, type, related_id, is_read, created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var typ string
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, apperr.FromPG(err)
	}
	n.Type = notification.Type(typ)
	return &n, nil
}

func (r *notificationRepoPG) Create(ctx context.Context, n *notification.Notification) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notification (user_id, title, message, type, related_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING notification_id`,
		n.UserID, n.Title, n.Message, string(n.Type), n.RelatedID, n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
	return apperr.FromPG(err)
}

func (r *notificationRepoPG) List(ctx context.Context, userID string, limit, offset int) ([]*notification.Notification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notification WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+notificationCols+` FROM notification
		WHERE user_id = $1 ORDER BY created_at DESC, notification_id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return items, total, err
}

func (r *notificationRepoPG) ListUnread(ctx context.Context, userID string) ([]*notification.Notification, error) {
	return r.list(ctx, `SELECT `+notificationCols+` FROM notification
		WHERE user_id = $1 AND NOT is_read ORDER BY created_at DESC, notification_id DESC`, userID)
}

func (r *notificationRepoPG) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

func (r *notificationRepoPG) MarkRead(ctx context.Context, userID string, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *notificationRepoPG) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *notificationRepoPG) Delete(ctx context.Context, userID string, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM notification WHERE notification_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *notificationRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*notification.Notification, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
