package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix           = "user:%d"
	HiloKeyPrefix           = "hilo:%d"
	NotificacionesKeyPrefix = "notificaciones:user:%d:%s"
)

const (
	UserTTL           = 5 * time.Minute
	HiloTTL           = 2 * time.Minute
	NotificacionesTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// HiloKey holds the hilo detail without per-viewer fields.
func HiloKey(hiloID uint) string {
	return fmt.Sprintf(HiloKeyPrefix, hiloID)
}

// NotificacionesKey is the cached listing for a user, split by the unread filter.
func NotificacionesKey(userID uint, unreadOnly bool) string {
	scope := "all"
	if unreadOnly {
		scope = "unread"
	}
	return fmt.Sprintf(NotificacionesKeyPrefix, userID, scope)
}

// Invalidate deletes keys, ignoring errors and a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateHilo(ctx context.Context, hiloID uint) {
	Invalidate(ctx, HiloKey(hiloID))
}

// InvalidateHilos clears several hilo entries in one round trip. Duplicates are fine.
func InvalidateHilos(ctx context.Context, hiloIDs ...uint) {
	keys := make([]string, 0, len(hiloIDs))
	for _, id := range hiloIDs {
		keys = append(keys, HiloKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateNotificaciones(ctx context.Context, userID uint) {
	Invalidate(ctx, NotificacionesKey(userID, false), NotificacionesKey(userID, true))
}
