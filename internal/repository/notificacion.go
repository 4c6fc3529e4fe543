package repository

import (
	"context"

	"foros/internal/cache"
	"foros/internal/models"

	"gorm.io/gorm"
)

// NotificacionesPageSize caps a user's notification listing.
const NotificacionesPageSize = 50

// NotificacionRepository defines persistence operations for notificaciones.
type NotificacionRepository interface {
	Create(ctx context.Context, n *models.Notificacion) error
	ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notificacion, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificacionRepository struct {
	db *gorm.DB
}

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepository{db: db}
}

func (r *notificacionRepository) Create(ctx context.Context, n *models.Notificacion) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateNotificaciones(ctx, n.UserID)
	return nil
}

// ListForUser returns the newest notificaciones, cached per user and filter.
func (r *notificacionRepository) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notificacion, error) {
	list := []models.Notificacion{}
	err := cache.Aside(ctx, cache.NotificacionesKey(userID, unreadOnly), &list, cache.NotificacionesTTL, func() error {
		q := r.db.WithContext(ctx).Where("user_id = ?", userID)
		if unreadOnly {
			q = q.Where("read = ?", false)
		}
		if err := q.Order("created_at DESC").Order("id DESC").
			Limit(NotificacionesPageSize).
			Find(&list).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificacionRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Notificacion{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// MarkRead only touches notificaciones owned by userID; anything else is
// reported as not found.
func (r *notificacionRepository) MarkRead(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notificacion{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notificacion", id)
	}
	cache.InvalidateNotificaciones(ctx, userID)
	return nil
}

func (r *notificacionRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notificacion{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	cache.InvalidateNotificaciones(ctx, userID)
	return res.RowsAffected, nil
}
