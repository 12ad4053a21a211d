// Package inbox serves the per-account notification feed written by the
// notification dispatcher.
package inbox

import (
	"github.com/homecare/homecare/internal/platform/notification"
	"github.com/homecare/homecare/pkg/datetime"
)

type NotificationDTO struct {
	NotificationID int                `json:"notificationId"`
	UserID         string             `json:"userId"`
	Title          string             `json:"title"`
	Message        string             `json:"message"`
	Type           string             `json:"type"`
	RelatedID      int                `json:"relatedId"`
	IsRead         bool               `json:"isRead"`
	CreatedAt      datetime.Timestamp `json:"createdAt"`
}

func NotificationDTOFromEntity(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           string(n.Type),
		RelatedID:      n.RelatedID,
		IsRead:         n.IsRead,
		CreatedAt:      datetime.Timestamp{Time: n.CreatedAt},
	}
}

func (d NotificationDTO) ToEntity() *notification.Notification {
	return &notification.Notification{
		ID:        d.NotificationID,
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      notification.Type(d.Type),
		RelatedID: d.RelatedID,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt.Time,
	}
}

func toDTOs(items []*notification.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationDTOFromEntity(n))
	}
	return out
}
