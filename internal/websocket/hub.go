// Package websocket pushes live snapshots to connected note views: the
// full ordered record list on every change plus migration status updates.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"notevault/internal/dto"
	"notevault/internal/pkg/logger"
	"notevault/internal/service"
)

type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	noteService      service.INoteService
	migrationService service.IMigrationService
	logger           logger.ILogger
}

func NewHub(noteService service.INoteService, migrationService service.IMigrationService, log logger.ILogger) *Hub {
	return &Hub{
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		clients:          make(map[*Client]struct{}),
		noteService:      noteService,
		migrationService: migrationService,
		logger:           log,
	}
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Run pumps repository snapshots and migration status changes to all
// connected clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	snapshots, err := h.noteService.Subscribe(ctx)
	if err != nil {
		h.logger.Error("Hub", "Failed to subscribe to note snapshots", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	statuses, err := h.migrationService.Subscribe(ctx)
	if err != nil {
		h.logger.Error("Hub", "Failed to subscribe to migration status", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"clients": h.clientCount(),
			})
			// New views get the current list without waiting for a change.
			h.sendTo(client, outboundMessage{
				Type:    "notes",
				Payload: dto.NewNoteResponses(h.noteService.Snapshot()),
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			h.broadcast(outboundMessage{
				Type:    "notes",
				Payload: dto.NewNoteResponses(snapshot),
			})

		case status, ok := <-statuses:
			if !ok {
				return
			}
			h.broadcast(outboundMessage{
				Type:    "migration",
				Payload: string(status),
			})

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal broadcast", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop this frame rather than block the hub.
		}
	}
}

func (h *Hub) sendTo(client *Client, msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
