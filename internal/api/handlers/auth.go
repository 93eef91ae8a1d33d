package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/server"
)

// AuthHandler serves the admin-surface login endpoint, the HTTP
// equivalent of the wire protocol's AUTH_LOGIN message for tooling that
// would rather speak plain REST than open a WebSocket.
type AuthHandler struct {
	hub *server.Hub
}

// NewAuthHandler builds a handler over hub.
func NewAuthHandler(hub *server.Hub) *AuthHandler {
	return &AuthHandler{hub: hub}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token          string `json:"token"`
	TokenExpiresAt int64  `json:"tokenExpiresAt"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	Role           string `json:"role"`
}

// Login validates a username/password and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.hub.Users == nil {
		WriteError(w, http.StatusServiceUnavailable, ErrServiceUnavailable, "server not configured for login")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	u, ok := h.hub.Users.GetByUsername(req.Username)
	if !ok || !auth.VerifyPassword(req.Password, u.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Invalid username or password")
		return
	}

	_ = h.hub.Users.UpdateLastLogin(u.ID)

	token, expiresAt, err := h.hub.Tokens.Issue(u)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		Token:          token,
		TokenExpiresAt: expiresAt,
		UserID:         u.ID,
		Username:       u.Username,
		Role:           string(u.Role),
	})
}
