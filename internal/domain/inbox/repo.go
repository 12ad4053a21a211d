package inbox

import (
	"context"

	"github.com/homecare/homecare/internal/platform/notification"
)

// NotificationRepository stores notifications. Every read and write other
// than Create is scoped to one account.
type NotificationRepository interface {
	notification.Store
	List(ctx context.Context, userID string, limit, offset int) ([]*notification.Notification, int, error)
	ListUnread(ctx context.Context, userID string) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, id int) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID string, id int) error
}
