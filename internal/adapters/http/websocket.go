package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/topomap/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Session string `json:"session"` // session id ("" = all sessions)
	Channel string `json:"channel"` // "viewport" | "closed" (default: viewport)
}

// WebSocketHandler relays published viewport snapshots to connected clients.
// Connecting with ?session=<id> subscribes to that session right away.
// Clients send JSON: {"action":"subscribe","session":"<id>","channel":"viewport"}
func WebSocketHandler(feed ViewportFeed) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		var mu sync.Mutex
		unsubs := make(map[string]func()) // channel:session -> unsubscribe

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(data []byte) {
			_ = writeJSON(json.RawMessage(data))
		}
		relayClosed := func(data []byte) {
			_ = writeJSON(map[string]string{"event": "session_closed", "session": string(data)})
		}

		subscribe := func(m wsMessage) (string, error) {
			key := m.Channel + ":" + m.Session
			if _, exists := unsubs[key]; exists {
				return key, nil
			}
			var (
				off func()
				err error
			)
			if m.Channel == "closed" {
				off, err = feed.SubscribeClosed(relayClosed)
			} else {
				off, err = feed.SubscribeViewport(m.Session, relay)
			}
			if err != nil {
				return key, err
			}
			unsubs[key] = off
			return key, nil
		}

		if id := c.Query("session"); id != "" {
			if _, err := subscribe(wsMessage{Session: id, Channel: "viewport"}); err != nil {
				log.Warn("ws initial subscribe", "session_id", id, "error", err)
				return
			}
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Channel == "" {
				m.Channel = "viewport"
			}
			if m.Channel != "viewport" && m.Channel != "closed" {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}
			if m.Channel == "closed" {
				m.Session = ""
			}

			switch m.Action {
			case "subscribe":
				key, err := subscribe(m)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "feed": key})

			case "unsubscribe":
				key := m.Channel + ":" + m.Session
				if off, exists := unsubs[key]; exists {
					off()
					delete(unsubs, key)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "feed": key})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + key})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, off := range unsubs {
			off()
		}
		log.Info("ws client disconnected")
	}
}
