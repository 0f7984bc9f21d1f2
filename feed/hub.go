package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// DeletionAttributor decides, at delivery time, whether a deleted frame
// reports an external deletion. Consuming the decision is the attributor's
// concern; the hub asks exactly once per deleted event.
type DeletionAttributor interface {
	ShouldNotifyExternalDeletion(ev Event) bool
}

// Hub bridges the in-process bus to websocket clients. Each client joins
// the room of one tournament; bus events are fanned out to the matching
// room as JSON frames.
type Hub struct {
	bus        *Bus
	attributor DeletionAttributor
	logger     *slog.Logger

	Register   chan *Client
	Unregister chan *Client

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(bus *Bus, attributor DeletionAttributor, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		attributor: attributor,
		logger:     logger,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run owns room membership and the bus bridge. Call it once, in its own
// goroutine.
func (h *Hub) Run() {
	sub := h.bus.SubscribeAll()
	defer sub.Close()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()
			h.logger.Info("feed client joined", slog.String("room", client.Room))

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if clients[client] {
					delete(clients, client)
					client.closeSend()
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("feed client left", slog.String("room", client.Room))

		case ev := <-sub.C:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev Event) {
	if ev.Type == EventTournamentDeleted && h.attributor != nil {
		// Attribute the deletion on the outbound frame. A self-initiated
		// delete consumes its marker here and is not reported as another
		// admin's action.
		ev.External = h.attributor.ShouldNotifyExternalDeletion(ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal feed event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[ev.TournamentID] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- payload:
			default:
				// Slow consumer; the frame is dropped, the client
				// re-syncs on its next fetch.
			}
		}
		client.mu.Unlock()
	}
}
