// Command votewatch follows a hilo's live vote count over WebSocket.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foros/internal/middleware"
	"foros/internal/notifications"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	hiloID := flag.Uint("hilo", 0, "hilo to watch")
	secure := flag.Bool("tls", false, "use wss")
	token := flag.String("token", "", "optional bearer token")
	flag.Parse()

	if *hiloID == 0 {
		fmt.Fprintln(os.Stderr, "usage: votewatch -hilo <id> [-host host:port] [-token jwt]")
		os.Exit(2)
	}

	u := watchURL(*host, *hiloID, *secure, *token)
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		middleware.Logger.Error("dial failed", "url", u.String(), "error", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var feed voteFeed
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					middleware.Logger.Warn("read failed", "error", err)
				}
				return
			}
			if line, ok := feed.format(msg); ok {
				fmt.Println(line)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-done:
	case <-sig:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func watchURL(host string, hiloID uint, secure bool, token string) url.URL {
	u := url.URL{Scheme: "ws", Host: host, Path: fmt.Sprintf("/ws/hilos/%d", hiloID)}
	if secure {
		u.Scheme = "wss"
	}
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	return u
}

// voteFeed renders frames as lines. Vote updates that are not newer than the
// last one shown are dropped, since concurrent publishes can arrive out of
// order.
type voteFeed struct {
	seen        bool
	lastVersion uint
}

func (f *voteFeed) format(msg []byte) (string, bool) {
	var ev struct {
		Type    string                         `json:"type"`
		Payload notifications.VoteCountPayload `json:"payload"`
		Error   string                         `json:"error"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		return "", false
	}
	switch {
	case ev.Error != "":
		return "error: " + ev.Error, true
	case ev.Type == notifications.EventHiloVoteUpdated:
		if f.seen && ev.Payload.Version <= f.lastVersion {
			return "", false
		}
		f.seen, f.lastVersion = true, ev.Payload.Version
		return fmt.Sprintf("%s hilo %d: %d", time.Now().Format(time.TimeOnly), ev.Payload.HiloID, ev.Payload.VoteCount), true
	}
	return "", false
}
