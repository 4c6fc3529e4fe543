package service

import (
	"context"

	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/notifications"
	"foros/internal/repository"
)

type NotificacionService struct {
	repo      repository.NotificacionRepository
	publisher EventPublisher
}

func NewNotificacionService(repo repository.NotificacionRepository, publisher EventPublisher) *NotificacionService {
	return &NotificacionService{repo: repo, publisher: publisher}
}

// Notify stores n and pushes it to the recipient's live channel. A failed push
// is logged; the stored row is the source of truth.
func (s *NotificacionService) Notify(ctx context.Context, n *models.Notificacion) error {
	if n.UserID == 0 {
		return models.NewValidationError("Notification recipient is required")
	}
	if n.Type == "" {
		n.Type = models.NotificacionSystem
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUserEvent(ctx, n.UserID, notifications.EventNotification, n); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				"notification_id", n.ID, "recipient_id", n.UserID, "error", err)
		}
	}
	return nil
}

func (s *NotificacionService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notificacion, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly)
}

func (s *NotificacionService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificacionService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificacionService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
