package handlers

import (
	"log"
	"net/http"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the tournament frontend origin before exposing
		// this publicly.
		return true
	},
}

type WebSocketHandler struct {
	hub *brackets.Hub
}

func NewWebSocketHandler(hub *brackets.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes a client to one tournament's event room at
// /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		http.Error(w, "missing tournamentID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Printf("failed to upgrade connection for tournament %s: %v", tournamentID, err)
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: tournamentID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
