package handlers

import (
	"net/http"

	"github.com/QR-Madness/diagrammer-host/internal/server"
)

// StatusHandler serves the host's status introspection endpoint.
type StatusHandler struct {
	hub *server.Hub
}

// NewStatusHandler builds a handler over hub.
func NewStatusHandler(hub *server.Hub) *StatusHandler {
	return &StatusHandler{hub: hub}
}

// Get reports the server's current lifecycle and connection state.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.hub.Status())
}
