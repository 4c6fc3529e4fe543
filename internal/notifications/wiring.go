package notifications

import (
	"context"

	"foros/internal/middleware"
)

// WireUserHub forwards user channel messages to the matching user's sockets.
func WireUserHub(ctx context.Context, hub *Hub, n *Notifier) error {
	return n.StartUserSubscriber(ctx, func(channel, payload string) {
		userID, ok := parseChannelID(channel, userChannelPrefix)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		hub.Broadcast(userID, payload)
	})
}

// WireVoteHub forwards committed vote counts to the sockets watching each hilo.
func WireVoteHub(ctx context.Context, hub *Hub, n *Notifier) error {
	return n.StartVoteSubscriber(ctx, func(channel, payload string) {
		hiloID, ok := parseChannelID(channel, hiloVotesChannelPrefix)
		if !ok {
			middleware.Logger.Warn("invalid vote channel", "channel", channel)
			return
		}
		hub.Broadcast(hiloID, payload)
	})
}
