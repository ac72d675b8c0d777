package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"docvault/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	redisChannel = "notifications"
	writeWait    = 5 * time.Second
	pingPeriod   = 30 * time.Second
)

type RedisMessage struct {
	Type         string             `json:"type"`
	UserID       string             `json:"userId"`
	Notification utils.Notification `json:"notification"`
	SenderId     string             `json:"senderId"` // hub instance id to avoid echo
}

type hubClient struct {
	userID string
	conn   *websocket.Conn
}

// Hub pushes notifications to the websocket connections of their principal.
// With a redis client it also relays them to the other server instances.
type Hub struct {
	logger *slog.Logger

	instanceId  string
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc

	clients  map[string]map[*websocket.Conn]struct{} // user id -> connections
	clientMu sync.RWMutex
	writeMu  sync.Map // *websocket.Conn -> *sync.Mutex
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	instanceId, err := utils.RandomString(16)
	if err != nil {
		instanceId = utils.NewID()
	}
	h := &Hub{
		logger:      logger,
		instanceId:  instanceId,
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
		clients:     make(map[string]map[*websocket.Conn]struct{}),
	}
	if redisClient != nil {
		go h.subscribeToRedis()
	}
	go h.pingClients()
	return h
}

func (h *Hub) Close() {
	h.cancel()
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			_ = c.Close()
		}
		delete(h.clients, userID)
	}
}

// AddClient registers c for userID and blocks until the connection closes.
func (h *Hub) AddClient(userID string, c *websocket.Conn) {
	h.clientMu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.clientMu.Unlock()
	h.logger.Debug("Client connected", "userId", userID)

	h.listenToClient(userID, c)
}

// listenToClient drains inbound frames; clients only receive.
func (h *Hub) listenToClient(userID string, c *websocket.Conn) {
	defer h.removeClient(userID, c)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket error", "userId", userID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) removeClient(userID string, c *websocket.Conn) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	h.writeMu.Delete(c)
	_ = c.Close()
}

// ClientCount returns the number of open connections for userID.
func (h *Hub) ClientCount(userID string) int {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return len(h.clients[userID])
}

// Publish implements Publisher.
func (h *Hub) Publish(ctx context.Context, n utils.Notification) {
	h.deliverLocal(n)
	if h.redisClient != nil {
		h.broadcastToRedis(ctx, n)
	}
}

func (h *Hub) deliverLocal(n utils.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to marshal notification", "error", err)
		return
	}

	h.clientMu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[n.UserID]))
	for c := range h.clients[n.UserID] {
		conns = append(conns, c)
	}
	h.clientMu.RUnlock()

	for _, c := range conns {
		if err := h.write(c, websocket.TextMessage, data); err != nil {
			h.removeClient(n.UserID, c)
		}
	}
}

// write serialises writers per connection; gorilla allows one at a time.
func (h *Hub) write(c *websocket.Conn, msgType int, data []byte) error {
	mu, _ := h.writeMu.LoadOrStore(c, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(msgType, data)
}

func (h *Hub) pingClients() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.clientMu.RLock()
			var targets []hubClient
			for userID, conns := range h.clients {
				for c := range conns {
					targets = append(targets, hubClient{userID, c})
				}
			}
			h.clientMu.RUnlock()
			for _, t := range targets {
				if err := h.write(t.conn, websocket.PingMessage, nil); err != nil {
					h.removeClient(t.userID, t.conn)
				}
			}
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) broadcastToRedis(ctx context.Context, n utils.Notification) {
	msg := RedisMessage{
		Type:         "notification",
		UserID:       n.UserID,
		Notification: n,
		SenderId:     h.instanceId,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal Redis message", "error", err)
		return
	}
	if err := h.redisClient.Publish(ctx, redisChannel, msgBytes).Err(); err != nil {
		h.logger.Error("Failed to publish to Redis", "error", err)
	}
}

func (h *Hub) subscribeToRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRedisMessage([]byte(msg.Payload))
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRedisMessage(payload []byte) {
	var redisMsg RedisMessage
	if err := json.Unmarshal(payload, &redisMsg); err != nil {
		h.logger.Error("Failed to unmarshal Redis message", "error", err)
		return
	}
	// Our own messages were already delivered locally.
	if redisMsg.Type != "notification" || redisMsg.SenderId == h.instanceId {
		return
	}
	h.deliverLocal(redisMsg.Notification)
}
