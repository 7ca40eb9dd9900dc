package observer

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
	"github.com/gorilla/websocket"
)

// writeWait is the time allowed to write a message to the peer.
const writeWait = 10 * time.Second

// pingPeriod and pongWait keep idle websocket connections alive.
const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkWebSocketOrigin,
}

// checkWebSocketOrigin allows same-origin requests (no Origin header) and
// any localhost origin, rejecting everything else: an observer feed is a
// local debugging tool, not a public API.
func checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := originURL.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// wsClient relays events.Hub activity to a single websocket connection.
type wsClient struct {
	conn *websocket.Conn
	send chan events.Event
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := s.hub.Subscribe()
	client := &wsClient{conn: conn, send: sub}

	go client.writePump()
	client.readPump(s.hub, sub)
}

// readPump discards inbound client traffic but keeps the connection's read
// deadline alive via pong handling, unsubscribing on disconnect.
func (c *wsClient) readPump(hub *events.Hub, sub chan events.Event) {
	defer func() {
		hub.Unsubscribe(sub)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes each subscribed event as JSON and sends it to the
// client, sending periodic pings to detect dead connections.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
