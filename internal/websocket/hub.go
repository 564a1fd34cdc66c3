package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hub keeps the per-process channel registry. It is ephemeral state: running
// more than one instance requires an external pub/sub bridge, which this
// service does not have.
type Hub struct {
	// Channel management
	channels map[string]map[*Client]struct{}
	mu       sync.RWMutex

	// User tracking
	userClients map[string][]*Client // userID -> [clients]
	userMu      sync.RWMutex

	// Hub lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	stats   HubStats
	statsMu sync.RWMutex

	// Cleanup
	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalChannels    int       `json:"total_channels"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessageSent      int64     `json:"message_sent"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		channels:    make(map[string]map[*Client]struct{}),
		userClients: make(map[string][]*Client),
		ctx:         ctx,
		cancel:      cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	go hub.cleanupRoutine()

	return hub
}

// RegisterUser ties an authenticated connection to its user: tracked under
// the user id and subscribed to the private user_<id> channel.
func (h *Hub) RegisterUser(client *Client) {
	userID := client.UserID()

	h.userMu.Lock()
	h.userClients[userID] = append(h.userClients[userID], client)
	h.userMu.Unlock()

	h.Subscribe("user_"+userID, client)

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})

	log.Info().Str("clientID", client.ID).Str("userID", userID).Msg("ws: client authenticated")
}

// Subscribe adds a client to a channel.
func (h *Hub) Subscribe(channel string, client *Client) {
	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	size := len(h.channels[channel])
	h.mu.Unlock()

	client.addChannel(channel)

	log.Info().Str("channel", channel).Str("clientID", client.ID).Str("userID", client.UserID()).Int("channelSize", size).Msg("ws: client subscribed")
}

// Unsubscribe removes a client from a channel.
func (h *Hub) Unsubscribe(channel string, client *Client) {
	h.mu.Lock()
	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)

		// Clean up empty channels
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()

	client.removeChannel(channel)
}

// RemoveClient drops a client from every channel and from user tracking.
// Called once when the connection dies.
func (h *Hub) RemoveClient(client *Client) {
	for _, channel := range client.Channels() {
		h.Unsubscribe(channel, client)
	}

	userID := client.UserID()
	if userID == "" {
		return
	}

	h.userMu.Lock()
	userClients := h.userClients[userID]
	for i, c := range userClients {
		if c == client {
			h.userClients[userID] = append(userClients[:i], userClients[i+1:]...)
			break
		}
	}

	if len(h.userClients[userID]) == 0 {
		delete(h.userClients, userID)
	}
	h.userMu.Unlock()

	log.Info().Str("clientID", client.ID).Str("userID", userID).Msg("ws: client removed")
}

// BroadcastToChannel sends an event to all clients subscribed to a channel.
func (h *Hub) BroadcastToChannel(channel string, event OutgoingEvent) {
	h.broadcastInternal(channel, event, nil)
}

// BroadcastToChannelExcept sends to all subscribers except one client.
func (h *Hub) BroadcastToChannelExcept(channel string, event OutgoingEvent, except *Client) {
	h.broadcastInternal(channel, event, except)
}

func (h *Hub) broadcastInternal(channel string, event OutgoingEvent, except *Client) {
	event.Channel = channel
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("ws: failed to marshal broadcast event")
		return
	}

	// Get snapshot of clients (minimize lock time)
	h.mu.RLock()
	var targets []*Client
	if clients, ok := h.channels[channel]; ok {
		targets = make([]*Client, 0, len(clients))
		for client := range clients {
			if except != nil && client == except {
				continue
			}
			if client.IsClientActive() {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	// Send to clients outside of lock (parallel sending)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 50) // limit concurrent sends

	for _, client := range targets {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
			}()
			select {
			case c.Send <- data:
				// success
			case <-c.ctx.Done():
				// Client is closing
			default:
				// Client buffer full - slow consumer
				log.Warn().Str("channel", channel).Str("clientID", c.ID).Msg("ws: slow consumer, dropping event")

				// Auto-cleanup slow clients
				go c.Close()
			}
		}(client)
	}

	wg.Wait()

	h.updateStats(func(stats *HubStats) {
		stats.MessageSent += int64(len(targets))
	})

	log.Debug().Str("channel", channel).Int("targets", len(targets)).Str("event", event.Event).Msg("ws: broadcast completed")
}

// BroadcastToUser sends an event to all connections of a specific user.
func (h *Hub) BroadcastToUser(userID string, event OutgoingEvent) {
	h.userMu.RLock()
	clients := make([]*Client, len(h.userClients[userID]))
	copy(clients, h.userClients[userID])
	h.userMu.RUnlock()

	if len(clients) == 0 {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("ws: failed to marshal user event")
		return
	}

	for _, client := range clients {
		if !client.IsClientActive() {
			continue
		}

		select {
		case client.Send <- data:
		case <-client.ctx.Done():
		default:
			log.Warn().Str("userID", userID).Str("clientID", client.ID).Msg("ws: user client buffer full")
		}
	}
}

// ChannelClients returns all active clients in a channel.
func (h *Hub) ChannelClients(channel string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	if channelClients, ok := h.channels[channel]; ok {
		for client := range channelClients {
			if client.IsClientActive() {
				clients = append(clients, client)
			}
		}
	}

	return clients
}

// IsUserOnlineInChannel checks if a user has any active connection in a channel.
func (h *Hub) IsUserOnlineInChannel(channel, userID string) bool {
	h.mu.RLock()
	channelClients, ok := h.channels[channel]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	for client := range channelClients {
		if client.UserID() == userID && client.IsClientActive() {
			return true
		}
	}

	return false
}

// ChannelStats returns statistics for a single channel.
func (h *Hub) ChannelStats(channel string) map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]any{
		"channel": channel,
		"exists":  false,
	}

	if clients, ok := h.channels[channel]; ok {
		activeClients := 0
		uniqueUsers := make(map[string]bool)

		for client := range clients {
			if client.IsClientActive() {
				activeClients++
				uniqueUsers[client.UserID()] = true
			}
		}

		stats["exists"] = true
		stats["total_connections"] = len(clients)
		stats["active_connections"] = activeClients
		stats["unique_users"] = len(uniqueUsers)
	}

	return stats
}

// GetHubStats returns overall hub statistics. The registry counts go into a
// local copy; h.stats itself is only ever written under statsMu.Lock.
func (h *Hub) GetHubStats() HubStats {
	h.mu.RLock()
	totalChannels := len(h.channels)
	totalClients := 0
	for _, clients := range h.channels {
		for client := range clients {
			if client.IsClientActive() {
				totalClients++
			}
		}
	}
	h.mu.RUnlock()

	h.statsMu.RLock()
	stats := h.stats
	h.statsMu.RUnlock()

	stats.TotalChannels = totalChannels
	stats.TotalClients = totalClients
	return stats
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) performCleanup() {
	now := time.Now()
	inactiveThreshold := 2 * time.Minute

	var toRemove []*Client

	h.mu.RLock()
	for _, clients := range h.channels {
		for client := range clients {
			if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
				toRemove = append(toRemove, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range toRemove {
		log.Info().
			Str("clientID", client.ID).
			Msg("ws: cleaning up inactive client")
		client.Close()
	}

	log.Debug().Int("cleaned", len(toRemove)).Msg("ws: cleanup routine completed")
}

// Close gracefully shuts down the hub.
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.mu.RLock()
	var allClients []*Client
	for _, clients := range h.channels {
		for client := range clients {
			allClients = append(allClients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range allClients {
		client.Close()
	}

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}
