package server

import (
	"context"
	"encoding/json"
	"fmt"

	"foros/internal/notifications"
)

// realtimePublisher sends events through Redis so every instance's hubs see
// them. Without Redis it broadcasts straight into this instance's hubs.
type realtimePublisher struct {
	notifier *notifications.Notifier
	userHub  *notifications.Hub
	voteHub  *notifications.Hub
	local    bool
}

func (p *realtimePublisher) PublishVoteCount(ctx context.Context, hiloID uint, count int, version uint) error {
	if !p.local {
		return p.notifier.PublishVoteCount(ctx, hiloID, count, version)
	}
	data, err := json.Marshal(notifications.Event{
		Type:    notifications.EventHiloVoteUpdated,
		Payload: notifications.VoteCountPayload{HiloID: hiloID, VoteCount: count, Version: version},
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	p.voteHub.Broadcast(hiloID, string(data))
	return nil
}

func (p *realtimePublisher) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) error {
	if !p.local {
		return p.notifier.PublishUserEvent(ctx, userID, eventType, payload)
	}
	data, err := json.Marshal(notifications.Event{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	p.userHub.Broadcast(userID, string(data))
	return nil
}
