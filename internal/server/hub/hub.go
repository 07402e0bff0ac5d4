// Package hub рассылает уведомления устройствам магазина через websocket.
// Уведомление только подсказывает клиенту выполнить sync, поэтому при
// переполненном буфере сообщение отбрасывается.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/posync/pkg/api"
)

// Config параметры соединений
type Config struct {
	MaxConnPerStore int
	SendBuffer      int
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxConnPerStore: 64,
		SendBuffer:      16,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingPeriod:      30 * time.Second,
	}
}

// Hub хранит подключенных клиентов по магазинам
type Hub struct {
	logger   *slog.Logger
	clients  map[string]map[string]*client // store_id -> client_id -> client
	upgrader websocket.Upgrader
	cfg      Config
	mu       sync.RWMutex
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	id       string
	storeID  string
	deviceID string
}

// New создает hub
func New(logger *slog.Logger, cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.MaxConnPerStore <= 0 {
		cfg.MaxConnPerStore = def.MaxConnPerStore
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}

	return &Hub{
		logger:  logger,
		clients: make(map[string]map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// устройства аутентифицируются токеном, а не cookie
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg: cfg,
	}
}

// Serve переводит соединение в websocket и держит его до отключения клиента.
// Аутентификация выполняется до вызова.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, storeID, deviceID string) {
	if h.Connections(storeID) >= h.cfg.MaxConnPerStore {
		h.logger.Warn("Max websocket connections reached", "store_id", storeID)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("Failed to upgrade connection", "error", err, "device_id", deviceID)
		return
	}

	c := &client{
		id:       uuid.NewString(),
		storeID:  storeID,
		deviceID: deviceID,
		conn:     conn,
		send:     make(chan []byte, h.cfg.SendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// Notify отправляет уведомление всем устройствам магазина
func (h *Hub) Notify(storeID string, n api.Notification) {
	message, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to encode notification", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients[storeID] {
		select {
		case c.send <- message:
		default:
			h.logger.Debug("Send buffer full, notification dropped", "client_id", c.id, "device_id", c.deviceID)
		}
	}
}

// Connections возвращает число открытых соединений магазина
func (h *Hub) Connections(storeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[storeID])
}

// Close закрывает все соединения
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for storeID, clients := range h.clients {
		for _, c := range clients {
			close(c.send)
		}
		delete(h.clients, storeID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.storeID] == nil {
		h.clients[c.storeID] = make(map[string]*client)
	}
	h.clients[c.storeID][c.id] = c

	h.logger.Info("Websocket client registered", "client_id", c.id, "store_id", c.storeID, "device_id", c.deviceID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[c.storeID]
	if !ok {
		return
	}
	if _, ok := clients[c.id]; !ok {
		return
	}

	delete(clients, c.id)
	if len(clients) == 0 {
		delete(h.clients, c.storeID)
	}
	close(c.send)

	h.logger.Info("Websocket client unregistered", "client_id", c.id, "device_id", c.deviceID)
}

// readPump читает входящие кадры только ради pong и close
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Websocket read error", "error", err, "client_id", c.id)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
