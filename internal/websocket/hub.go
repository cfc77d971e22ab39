// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

// Package websocket pushes task snapshot changes to connected launcher UI
// clients. The hub fans out three message kinds: task_update and
// task_removed for individual push events, and resync when a full pull
// replaced the snapshot (clients re-fetch the task list on that one).
package websocket

import (
	"context"
	"sync"

	"github.com/packboard/packboard/internal/logging"
	"github.com/packboard/packboard/internal/metrics"
	"github.com/packboard/packboard/internal/task"
)

// Message types sent to UI clients.
const (
	MessageTypeTaskUpdate  = "task_update"
	MessageTypeTaskRemoved = "task_removed"
	MessageTypeResync      = "resync"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is one WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ResyncData is the payload of a resync message.
type ResyncData struct {
	TaskCount int    `json:"task_count"`
	Revision  uint64 `json:"revision"`
}

// TaskRemovedData is the payload of a task_removed message.
type TaskRemovedData struct {
	ID string `json:"id"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// It implements the ingestor's and reconciler's Notifier interfaces, so the
// two store writers publish UI updates without knowing about WebSockets.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub; run it with RunWithContext under the supervisor.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// TaskUpserted broadcasts a created or updated task.
func (h *Hub) TaskUpserted(t task.Task) {
	h.send(Message{Type: MessageTypeTaskUpdate, Data: t})
}

// TaskRemoved broadcasts a task removal.
func (h *Hub) TaskRemoved(id string) {
	h.send(Message{Type: MessageTypeTaskRemoved, Data: TaskRemovedData{ID: id}})
}

// Resynced tells clients the full snapshot was replaced.
func (h *Hub) Resynced(count int, revision uint64) {
	h.send(Message{Type: MessageTypeResync, Data: ResyncData{TaskCount: count, Revision: revision}})
}

// send enqueues a broadcast, dropping it if the hub is saturated. A dropped
// frame is safe: the UI reconverges on the next resync message or fetch.
func (h *Hub) send(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("type", msg.Type).Msg("websocket broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RunWithContext processes registrations and broadcasts until ctx is
// canceled, then closes all clients and returns ctx.Err(). Designed to run
// under suture supervision.
//
// Lifecycle events are drained before broadcasts so a client that just
// disconnected never receives another frame.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown first.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Then pending lifecycle events, without blocking.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Then block on anything.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// fanOut delivers a message to every client, dropping clients whose send
// buffer is full (slow consumers re-sync when they catch up).
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	closed := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().Int("clients_closed", closed).Msg("websocket hub stopped")
}
