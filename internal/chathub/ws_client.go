package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"medchat/backend/internal/config"
	"medchat/backend/internal/models"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	ConnID   string
	Identity models.Identity
	Conn     *websocket.Conn
	Hub      *ManagerService

	send   chan models.LiveEvent
	mu     sync.Mutex
	closed bool
}

// NewWebSocketClient wraps an upgraded connection. Call Hub.OnConnect before Run.
func NewWebSocketClient(connID string, identity models.Identity, conn *websocket.Conn, hub *ManagerService) *WebSocketClient {
	return &WebSocketClient{
		ConnID:   connID,
		Identity: identity,
		Conn:     conn,
		Hub:      hub,
		send:     make(chan models.LiveEvent, config.ClientSendBuffer),
	}
}

func (c *WebSocketClient) GetConnID() string {
	return c.ConnID
}

func (c *WebSocketClient) GetIdentity() models.Identity {
	return c.Identity
}

// Deliver queues event for the write pump. A full buffer drops the frame.
func (c *WebSocketClient) Deliver(event models.LiveEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which sends a close frame and tears down the socket.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.OnDisconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.WithField("conn", c.ConnID).WithError(err).Warn("live connection read failed")
			}
			return
		}

		var event models.LiveEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.WithField("conn", c.ConnID).WithError(err).Debug("dropping malformed live frame")
			c.Deliver(models.LiveEvent{Type: models.EventError, Error: "malformed frame"})
			continue
		}

		_ = c.Hub.HandleEvent(ctx, c, event)
	}
}

// writePump writes one JSON frame per queued event and keeps the peer alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				log.WithField("conn", c.ConnID).WithError(err).Debug("live write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
