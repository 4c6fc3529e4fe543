// Package service holds the forum's business rules between HTTP handlers and
// the repositories.
package service

import (
	"context"
	"time"
)

// IsAdminFunc reports whether a user holds the admin role.
type IsAdminFunc func(ctx context.Context, userID uint) (bool, error)

// EventPublisher fans realtime events out to connected clients.
type EventPublisher interface {
	PublishVoteCount(ctx context.Context, hiloID uint, count int, version uint) error
	PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) error
}

// FlagChecker evaluates per-user feature flags.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

// canModify allows the owner or an admin.
func canModify(ctx context.Context, isAdmin IsAdminFunc, ownerID, actorID uint) (bool, error) {
	if ownerID == actorID {
		return true, nil
	}
	if isAdmin == nil {
		return false, nil
	}
	return isAdmin(ctx, actorID)
}

// sleepContext waits for d or until ctx is done, reporting whether the full
// wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func normalizeLimit(limit, offset int) (int, int) {
	const defaultLimit, maxLimit = 20, 100
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
