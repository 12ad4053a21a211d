package inbox

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/notification"
)

type Service struct {
	repo   NotificationRepository
	logger zerolog.Logger
}

func NewService(repo NotificationRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func owner(caller *auth.Principal) (string, error) {
	if caller.UserID == "" {
		return "", apperr.ErrUnauthorized
	}
	return caller.UserID, nil
}

func (s *Service) List(ctx context.Context, caller *auth.Principal, limit, offset int) ([]*notification.Notification, int, error) {
	userID, err := owner(caller)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *Service) ListUnread(ctx context.Context, caller *auth.Principal) ([]*notification.Notification, error) {
	userID, err := owner(caller)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUnread(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, caller *auth.Principal) (int, error) {
	userID, err := owner(caller)
	if err != nil {
		return 0, err
	}
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead reports another account's notification as not found.
func (s *Service) MarkRead(ctx context.Context, caller *auth.Principal, id int) error {
	userID, err := owner(caller)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFoundf("notification %d not found", id)
		}
		return err
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, caller *auth.Principal) (int, error) {
	userID, err := owner(caller)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Str("user_id", userID).Int("count", n).Msg("notifications marked read")
	return n, nil
}

func (s *Service) Delete(ctx context.Context, caller *auth.Principal, id int) error {
	userID, err := owner(caller)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFoundf("notification %d not found", id)
		}
		return err
	}
	return nil
}
