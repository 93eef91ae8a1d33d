package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/server"
)

// UsersHandler serves the admin credential-management surface: create,
// list, update-role, reset-password, and delete, exposing the host's
// control surface over HTTP for tooling that manages the server
// out-of-band from a live client connection.
type UsersHandler struct {
	hub *server.Hub
}

// NewUsersHandler builds a handler over hub.
func NewUsersHandler(hub *server.Hub) *UsersHandler {
	return &UsersHandler{hub: hub}
}

type userView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	CreatedAt   int64  `json:"createdAt"`
	LastLoginAt *int64 `json:"lastLoginAt,omitempty"`
}

func toUserView(u auth.User) userView {
	return userView{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// List returns every user in the credential store.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.hub.Users.List()
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	WriteJSON(w, http.StatusOK, views)
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Create adds a new user, hashing its password before storage.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "username and password are required")
		return
	}

	role := auth.RoleUser
	if req.Role == string(auth.RoleAdmin) {
		role = auth.RoleAdmin
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "failed to hash password")
		return
	}

	u := auth.NewUser(displayName, req.Username, hash, role)
	if err := h.hub.Users.Add(u); err != nil {
		if err == auth.ErrDuplicateUsername {
			WriteError(w, http.StatusConflict, ErrConflict, "username already exists")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, toUserView(u))
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole changes a user's role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	role := auth.Role(req.Role)
	if role != auth.RoleAdmin && role != auth.RoleUser {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "role must be admin or user")
		return
	}

	if err := h.hub.Users.UpdateRole(id, role); err != nil {
		if err == auth.ErrNotFound {
			WriteError(w, http.StatusNotFound, ErrNotFound, "user not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword replaces a user's stored password hash.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "password is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "failed to hash password")
		return
	}

	if err := h.hub.Users.UpdatePasswordHash(id, hash); err != nil {
		if err == auth.ErrNotFound {
			WriteError(w, http.StatusNotFound, ErrNotFound, "user not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes a user from the credential store.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	removed, err := h.hub.Users.Remove(id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	if !removed {
		WriteError(w, http.StatusNotFound, ErrNotFound, "user not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
