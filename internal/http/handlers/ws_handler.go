package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/evacdesk/rollcall/internal/broadcast"
	"github.com/evacdesk/rollcall/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Boards and kiosks connect from whatever origin the venue serves
	// them on; the socket is read-only from the client side.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades observer connections and hands them to the hub.
type WSHandler struct {
	hub *broadcast.Hub
}

func NewWSHandler(hub *broadcast.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	conn := broadcast.NewConn(ws)
	h.hub.Register(conn)

	go conn.ReadLoop(func() {
		h.hub.Unregister(conn)
	})
}
