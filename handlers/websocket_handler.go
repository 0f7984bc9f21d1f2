package handlers

import (
	"log/slog"
	"net/http"

	"github.com/courtside-club/courtside-server/feed"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the club frontend origins before exposing this
		// outside the private network.
		return true
	},
}

type WebSocketHandler struct {
	hub    *feed.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *feed.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeWs joins the caller to one tournament's change-feed room.
// Clients connect to /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		http.Error(w, "missing tournamentID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := feed.NewClient(h.hub, conn, tournamentID, h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
