package websocket

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins to the Bau-Structura frontends before exposing
	// this outside the reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RateLimitConfig struct {
	Enabled          bool
	ConnectionsPerIP int
}

// WebSocketHandler upgrades connections and enforces connection limits.
// Authentication happens later, over the socket itself.
type WebSocketHandler struct {
	Hub        *Hub
	Dispatcher *Dispatcher

	MaxConnections int64
	RateLimit      RateLimitConfig

	connCount atomic.Int64
	ipConns   map[string]int
	ipMu      sync.Mutex
}

func NewWebSocketHandler(hub *Hub, dispatcher *Dispatcher) *WebSocketHandler {
	return &WebSocketHandler{
		Hub:            hub,
		Dispatcher:     dispatcher,
		MaxConnections: 10000,
		RateLimit: RateLimitConfig{
			Enabled:          true,
			ConnectionsPerIP: 20,
		},
		ipConns: make(map[string]int),
	}
}

func (h *WebSocketHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.connCount.Load() >= h.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	clientIP := h.getClientIP(r)
	if !h.acquireIPSlot(clientIP) {
		http.Error(w, "too many connections from this address", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.releaseIPSlot(clientIP)
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	h.connCount.Add(1)

	client := NewClient(uuid.New().String(), clientIP, conn, h.Hub, h.Dispatcher, func(c *Client) {
		h.connCount.Add(-1)
		h.releaseIPSlot(c.IP)
	})

	client.Start()

	log.Info().Str("clientID", client.ID).Str("ip", clientIP).Msg("ws: connection established")
}

func (h *WebSocketHandler) acquireIPSlot(clientIP string) bool {
	if !h.RateLimit.Enabled {
		return true
	}

	h.ipMu.Lock()
	defer h.ipMu.Unlock()

	if h.ipConns[clientIP] >= h.RateLimit.ConnectionsPerIP {
		return false
	}

	h.ipConns[clientIP]++
	return true
}

func (h *WebSocketHandler) releaseIPSlot(clientIP string) {
	if !h.RateLimit.Enabled {
		return
	}

	h.ipMu.Lock()
	defer h.ipMu.Unlock()

	h.ipConns[clientIP]--
	if h.ipConns[clientIP] <= 0 {
		delete(h.ipConns, clientIP)
	}
}

func (h *WebSocketHandler) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}
