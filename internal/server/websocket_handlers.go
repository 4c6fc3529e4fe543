package server

import (
	"context"
	"encoding/json"
	"strconv"

	"foros/internal/middleware"
	"foros/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketHiloVotesHandler streams live vote counts for one hilo. The
// current count is sent on connect, then every committed change.
func (s *Server) WebSocketHiloVotesHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		hiloID, err := strconv.ParseUint(conn.Params("id"), 10, 64)
		if err != nil || hiloID == 0 {
			writeWSError(conn, "invalid hilo id")
			return
		}

		tally, err := s.voteService.Tally(context.Background(), uint(hiloID))
		if err != nil {
			writeWSError(conn, "hilo not found")
			return
		}

		userID, _ := conn.Locals("userID").(uint)
		client, err := s.voteHub.Register(tally.HiloID, userID, conn)
		if err != nil {
			middleware.Logger.Warn("vote socket rejected", "hilo_id", tally.HiloID, "error", err)
			writeWSError(conn, err.Error())
			return
		}

		snapshot, _ := json.Marshal(notifications.Event{
			Type:    notifications.EventHiloVoteUpdated,
			Payload: notifications.VoteCountPayload{HiloID: tally.HiloID, VoteCount: tally.VoteCount, Version: tally.Version},
		})
		client.TrySend(snapshot)

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketNotificacionesHandler pushes the caller's new notifications.
func (s *Server) WebSocketNotificacionesHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			writeWSError(conn, "unauthorized")
			return
		}

		client, err := s.userHub.Register(userID, userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected", "user_id", userID, "error", err)
			writeWSError(conn, err.Error())
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func writeWSError(conn *websocket.Conn, msg string) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, data)
	_ = conn.Close()
}
