package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WSClient struct {
	UserID    uint
	SessionID string
	Conn      *websocket.Conn

	writeMu sync.Mutex
}

// Send writes one JSON message. Safe for concurrent use.
func (c *WSClient) Send(payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.Conn.WriteJSON(payload)
}

func (c *WSClient) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

func (h *RealtimeHub) snapshot(userID uint) []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		out = append(out, c)
	}
	return out
}

// BroadcastToUser sends payload to every open connection of the user.
func (h *RealtimeHub) BroadcastToUser(userID uint, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, c := range h.snapshot(userID) {
		_ = c.Send(json.RawMessage(msg))
	}
}

// Count reports how many connections the user has open.
func (h *RealtimeHub) Count(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyDataChanged tells a user's open tabs to refetch. Session events are
// delivered by each connection's guard instead.
func (h *RealtimeHub) NotifyDataChanged(userID uint, what string) {
	h.BroadcastToUser(userID, map[string]any{"kind": "data.changed", "what": what})
}
