package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/pkg/api"
)

// Connectivity is what the monitor drives.
type Connectivity interface {
	SetOnline(online bool)
	Trigger(reason string) bool
}

// MonitorConfig holds reconnect and keepalive settings.
type MonitorConfig struct {
	RetryMin time.Duration
	RetryMax time.Duration
	PongWait time.Duration // сервер шлёт ping чаще этого интервала
}

// DefaultMonitorConfig returns the settings used when none are configured.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		RetryMin: time.Second,
		RetryMax: time.Minute,
		PongWait: 60 * time.Second,
	}
}

// Monitor keeps a websocket open to the server. An open socket means the
// device is online; a server notification triggers a sync round.
type Monitor struct {
	target Connectivity
	tokens auth.TokenSource
	dialer *websocket.Dialer
	logger *slog.Logger
	url    string
	cfg    MonitorConfig
}

// NewMonitor creates a monitor for the server at baseURL (http or https).
func NewMonitor(baseURL string, tokens auth.TokenSource, target Connectivity, cfg MonitorConfig, logger *slog.Logger) (*Monitor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/ws"

	def := DefaultMonitorConfig()
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = def.RetryMin
	}
	if cfg.RetryMax < cfg.RetryMin {
		cfg.RetryMax = max(def.RetryMax, cfg.RetryMin)
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}

	return &Monitor{
		target: target,
		tokens: tokens,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: logger,
		url:    u.String(),
		cfg:    cfg,
	}, nil
}

// URL returns the websocket endpoint.
func (m *Monitor) URL() string {
	return m.url
}

// Run connects and reconnects until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	delay := m.cfg.RetryMin

	for {
		connected, err := m.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m.target.SetOnline(false)
		if connected {
			delay = m.cfg.RetryMin
		}
		m.logger.Debug("Websocket disconnected", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, m.cfg.RetryMax)
	}
}

// session holds one connection. It reports whether the dial succeeded.
func (m *Monitor) session(ctx context.Context) (bool, error) {
	token, err := m.tokens.AccessToken(ctx)
	if err != nil {
		return false, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := m.dialer.DialContext(ctx, m.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("failed to dial %s: %w", m.url, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	m.logger.Info("Websocket connected", "url", m.url)
	m.target.SetOnline(true)

	_ = conn.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(m.cfg.PongWait))

		m.handle(message)
	}
}

func (m *Monitor) handle(message []byte) {
	var n api.Notification
	if err := json.Unmarshal(message, &n); err != nil {
		m.logger.Warn("Malformed notification", "error", err)
		return
	}

	switch n.Type {
	case api.NotificationEventsAvailable, api.NotificationConflictClosed:
		m.logger.Debug("Server notification", "type", n.Type, "last_seq", n.LastSeq)
		m.target.Trigger(ReasonNotification)
	default:
		m.logger.Debug("Unknown notification ignored", "type", n.Type)
	}
}
