package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"learnsphere_backend/pkg/logger"
	"learnsphere_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	progressChannel = "progress_channel"

	presenceKeyPrefix = "online:"
	presenceTTL       = 90 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HubEvent is one realtime notification pushed to a learner's open sessions:
// a progress change after a sync write, or a profile change.
type HubEvent struct {
	Type     string `json:"type"` // PROGRESS | PROFILE
	UserID   uint   `json:"userId"`
	CourseID uint   `json:"courseId,omitempty"`
	Progress int    `json:"progress,omitempty"`
}

type hubClient struct {
	hub    *ProgressHub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

func (c *hubClient) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.touchPresence(c.userID)
		return nil
	})
	for {
		// The progress socket is push-only; inbound frames are drained just to
		// keep the connection's control messages flowing.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.userID))
			}
			break
		}
	}
}

func (c *hubClient) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.send)
				}
			}

			if err := w.Close(); err != nil {
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

// ProgressHub fans progress and profile change events out to each learner's
// open websocket connections. Events go through redis pub/sub so every
// instance sees writes made by its peers.
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*hubClient]bool

	register   chan *hubClient
	unregister chan *hubClient
	done       chan struct{}

	Redis *redis.Client
	ctx   context.Context
}

func NewProgressHub(rdb *redis.Client) *ProgressHub {
	return &ProgressHub{
		clients:    make(map[uint]map[*hubClient]bool),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		done:       make(chan struct{}),
		Redis:      rdb,
		ctx:        context.Background(),
	}
}

func (h *ProgressHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, progressChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var event HubEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.pushToLocal(event.UserID, []byte(msg.Payload))
		}
	}()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*hubClient]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			monitoring.RealtimeClientGauge.Inc()
			h.touchPresence(client.userID)
		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
					monitoring.RealtimeClientGauge.Dec()
				}
				if len(conns) == 0 {
					delete(h.clients, client.userID)
					h.clearPresence(client.userID)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			pubsub.Close()
			h.closeAll()
			return
		}
	}
}

func (h *ProgressHub) Stop() {
	close(h.done)
}

// drop hands the client back for unregistration. Once the hub has stopped
// there is no receiver anymore, so the send also watches done.
func (h *ProgressHub) drop(c *hubClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *ProgressHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for client := range conns {
			close(client.send)
			monitoring.RealtimeClientGauge.Dec()
		}
		delete(h.clients, userID)
	}
}

// Presence markers let other instances tell whether a learner has a live
// socket somewhere. Best effort; the TTL covers missed cleanup.
func (h *ProgressHub) touchPresence(userID uint) {
	key := presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
	if err := h.Redis.Set(h.ctx, key, time.Now().Unix(), presenceTTL).Err(); err != nil {
		logger.Log.Debug("presence touch failed", zap.Error(err))
	}
}

func (h *ProgressHub) clearPresence(userID uint) {
	key := presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
	if err := h.Redis.Del(h.ctx, key).Err(); err != nil {
		logger.Log.Debug("presence clear failed", zap.Error(err))
	}
}

// IsOnline reports whether the learner currently has a live connection on
// any instance.
func (h *ProgressHub) IsOnline(userID uint) bool {
	key := presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
	n, err := h.Redis.Exists(h.ctx, key).Result()
	return err == nil && n > 0
}

func (h *ProgressHub) pushToLocal(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop rather than block the fan-out.
		}
	}
}

func (h *ProgressHub) publish(event HubEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := h.Redis.Publish(h.ctx, progressChannel, payload).Err(); err != nil {
		logger.Log.Error("event publish failed", zap.Error(err))
		// Still deliver to clients on this instance.
		h.pushToLocal(event.UserID, payload)
	}
}

// PublishProgress implements ProgressPublisher.
func (h *ProgressHub) PublishProgress(userID, courseID uint, progress int) {
	h.publish(HubEvent{
		Type:     "PROGRESS",
		UserID:   userID,
		CourseID: courseID,
		Progress: progress,
	})
}

// PublishProfile notifies the learner's open sessions that profile data
// changed and should be re-fetched.
func (h *ProgressHub) PublishProfile(userID uint) {
	h.publish(HubEvent{
		Type:   "PROFILE",
		UserID: userID,
	})
}

// ServeWS upgrades the request and attaches the connection to the hub until
// the client goes away.
func (h *ProgressHub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &hubClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 16),
		userID: userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}
