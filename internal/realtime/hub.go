package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const outboundBuffer = 16

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan Event
	done     chan struct{}
	closed   bool
	Logger   *logger.Logger
}

// Hub fans events out to the streaming clients subscribed to their channel.
type Hub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	heartbeat     time.Duration
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:        log.With("component", "EventHub"),
		heartbeat:     15 * time.Second,
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	id := uuid.New()
	return &Client{
		ID:       id,
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan Event, outboundBuffer),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("clientID", id),
	}
}

func (hub *Hub) AddChannel(client *Client, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" || client.closed {
		return
	}
	client.Channels[channel] = true

	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*Client]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true

	hub.logger.Debug("Client subscribed", "clientID", client.ID, "channel", channel)
}

func (hub *Hub) RemoveChannel(client *Client, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.unsubscribeLocked(client, strings.TrimSpace(channel))
}

func (hub *Hub) unsubscribeLocked(client *Client, channel string) {
	if channel == "" {
		return
	}
	delete(client.Channels, channel)
	if subMap, ok := hub.subscriptions[channel]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
}

// Subscribers reports how many clients listen on channel.
func (hub *Hub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[channel])
}

func (hub *Hub) Broadcast(ev Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if ev.Channel == "" {
		return
	}
	for c := range hub.subscriptions[ev.Channel] {
		select {
		case c.Outbound <- ev:
		default:
			hub.logger.Warn("Dropping event; outbound buffer full", "clientID", c.ID, "event", ev.Type)
		}
	}
}

// Dispatch broadcasts ev and then applies its effect on subscriptions: a
// removed member stops receiving the project's events and a deleted project's
// channel is torn down.
func (hub *Hub) Dispatch(ev Event) {
	hub.Broadcast(ev)

	switch ev.Type {
	case EventMemberRemoved:
		hub.mu.Lock()
		for c := range hub.subscriptions[ev.Channel] {
			if c.UserID == ev.SubjectID {
				hub.unsubscribeLocked(c, ev.Channel)
			}
		}
		hub.mu.Unlock()
	case EventProjectDeleted:
		hub.mu.Lock()
		for c := range hub.subscriptions[ev.Channel] {
			hub.unsubscribeLocked(c, ev.Channel)
		}
		hub.mu.Unlock()
	}
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	// commit headers so the client sees the stream as open
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(hub.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("Client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-client.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				hub.logger.Warn("Failed to marshal event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, raw)
			flusher.Flush()
		}
	}
}

// CloseClient unsubscribes the client and closes its outbound channel. It is
// safe to call more than once.
func (hub *Hub) CloseClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if client.closed {
		return
	}
	client.closed = true
	for ch := range client.Channels {
		hub.unsubscribeLocked(client, ch)
	}
	close(client.done)
	close(client.Outbound)
	hub.logger.Debug("Client closed", "clientID", client.ID)
}
