// Package notifications provides real-time delivery of user notifications and
// live vote counts over Redis pub/sub and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"foros/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix      = "notifications:user:"
	hiloVotesChannelPrefix = "hilo:votes:"

	// EventHiloVoteUpdated is the event type carried on hilo vote channels.
	EventHiloVoteUpdated = "hilo_vote_updated"
	// EventNotification is the event type carried on user channels.
	EventNotification = "notification"
)

// Event is the envelope every pushed websocket message uses.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// VoteCountPayload is published after each committed vote. Version is the
// hilo's concurrency token after the write; publishes can arrive out of order,
// so a client keeps the payload with the highest version.
type VoteCountPayload struct {
	HiloID    uint `json:"hilo_id"`
	VoteCount int  `json:"vote_count"`
	Version   uint `json:"version"`
}

// Notifier provides helpers to publish events into Redis channels.
// A Notifier built on a nil client drops everything silently.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishUserEvent wraps payload in an Event and sends it to a user's channel.
func (n *Notifier) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) error {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.PublishUser(ctx, userID, string(data))
}

// PublishVoteCount announces a hilo's committed vote count at version.
func (n *Notifier) PublishVoteCount(ctx context.Context, hiloID uint, count int, version uint) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(Event{
		Type:    EventHiloVoteUpdated,
		Payload: VoteCountPayload{HiloID: hiloID, VoteCount: count, Version: version},
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, HiloVotesChannel(hiloID), string(data)).Err()
}

// StartUserSubscriber forwards every message on `notifications:user:*`.
func (n *Notifier) StartUserSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "UserSubscriber", onMessage, userChannelPrefix+"*")
}

// StartVoteSubscriber forwards every message on `hilo:votes:*`.
func (n *Notifier) StartVoteSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "VoteSubscriber", onMessage, hiloVotesChannelPrefix+"*")
}

func (n *Notifier) subscribe(ctx context.Context, name string, onMessage func(channel, payload string), patterns ...string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	// wait for the subscription to be acknowledged so early publishes are not lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe %v: %w", patterns, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in subscriber",
								"subscriber", name, "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// HiloVotesChannel derives the Redis channel name for a hilo's vote count.
func HiloVotesChannel(hiloID uint) string {
	return hiloVotesChannelPrefix + strconv.FormatUint(uint64(hiloID), 10)
}

// parseChannelID extracts the numeric suffix of a channel with the given prefix.
func parseChannelID(channel, prefix string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
