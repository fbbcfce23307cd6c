package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/prediction-pool/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeWs подключает клиента к комнате пула: /ws/pools/{poolID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	if poolID == "" {
		http.Error(w, "Missing poolID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for pool %s: %v", poolID, err)
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: poolID,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
