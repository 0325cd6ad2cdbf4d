package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polycrisisio/wssi-deck/internal/common"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
)

// The feed serves local widget surfaces on the same host, so origin
// checks are permissive.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one connected feed consumer.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	logger *common.Logger
	send   chan []byte
}

// Serve returns the HTTP handler that upgrades requests onto the feed.
func Serve(hub *Hub, logger *common.Logger) http.HandlerFunc {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("feed upgrade failed")
			return
		}
		client := &Client{
			hub:    hub,
			conn:   conn,
			logger: logger,
			send:   make(chan []byte, 16),
		}
		hub.Register(client)
		go client.writePump()
		go client.readPump()
	}
}

// readPump consumes inbound messages. Selection events are relayed to
// the other connected clients; everything else is dropped. Nothing a
// client sends can reach the engine.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("feed client read error")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Debug().Err(err).Msg("discarding malformed feed message")
			continue
		}
		if event.Type != EventSelection {
			c.logger.Debug().Str("type", event.Type).Msg("discarding unsupported feed message")
			continue
		}
		c.hub.broadcastExcept(c, message)
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
