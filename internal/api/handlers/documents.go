package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/QR-Madness/diagrammer-host/internal/api/middleware"
	"github.com/QR-Madness/diagrammer-host/internal/permission"
	"github.com/QR-Madness/diagrammer-host/internal/protocol"
	"github.com/QR-Madness/diagrammer-host/internal/server"
	"github.com/QR-Madness/diagrammer-host/internal/store"
)

// DocumentsHandler exposes direct REST access to team documents,
// mirroring the wire protocol's DOC_LIST/DOC_GET/DOC_SAVE/DOC_DELETE/
// DOC_SHARE/DOC_TRANSFER messages for admin tooling, and emitting the
// same DOC_EVENT broadcasts so connected clients stay consistent with
// changes made through this surface.
type DocumentsHandler struct {
	hub *server.Hub
}

// NewDocumentsHandler builds a handler over hub.
func NewDocumentsHandler(hub *server.Hub) *DocumentsHandler {
	return &DocumentsHandler{hub: hub}
}

func (h *DocumentsHandler) identity(r *http.Request) (userID, role string) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return "", ""
	}
	return claims.Subject, string(claims.Role)
}

// List returns every document's metadata.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.hub.Docs.List())
}

// Get returns one document's full body, subject to read permission.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID, role := h.identity(r)

	if _, err := permission.CheckRead(h.hub.Docs.Lookup, id, userID, role); err != nil {
		writePermissionError(w, err)
		return
	}

	doc, err := h.hub.Docs.Get(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "document not found")
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// Save creates or updates a document, broadcasting the resulting
// DOC_EVENT to every authenticated client.
func (h *DocumentsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var doc store.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid document body")
		return
	}

	docID, _ := doc["id"].(string)
	userID, role := h.identity(r)

	if docID != "" {
		if _, exists := h.hub.Docs.GetMetadata(docID); exists {
			if _, err := permission.CheckWrite(h.hub.Docs.Lookup, docID, userID, role); err != nil {
				writePermissionError(w, err)
				return
			}
		}
	}

	doc["lastModifiedBy"] = userID

	created, err := h.hub.Docs.Save(doc)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	docID, _ = doc["id"].(string)
	eventType := protocol.DocEventUpdated
	status := http.StatusOK
	if created {
		eventType = protocol.DocEventCreated
		status = http.StatusCreated
	}
	h.hub.EmitDocEvent(eventType, docID, userID)

	WriteJSON(w, status, map[string]any{"id": docID, "created": created})
}

// Delete removes a document, broadcasting a DOC_EVENT on success.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID, role := h.identity(r)

	if _, err := permission.CheckDelete(h.hub.Docs.Lookup, id, userID, role); err != nil {
		writePermissionError(w, err)
		return
	}

	removed, err := h.hub.Docs.Delete(id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	if !removed {
		WriteError(w, http.StatusNotFound, ErrNotFound, "document not found")
		return
	}

	h.hub.EmitDocEvent(protocol.DocEventDeleted, id, userID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type shareRequest struct {
	Shares []store.ShareEntry `json:"shares"`
}

// Share replaces a document's sharedWith list, requiring ownership.
func (h *DocumentsHandler) Share(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID, role := h.identity(r)

	if _, err := permission.CheckDelete(h.hub.Docs.Lookup, id, userID, role); err != nil {
		writePermissionError(w, err)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	if err := h.hub.Docs.UpdateShares(id, req.Shares); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	h.hub.EmitDocEvent(protocol.DocEventUpdated, id, userID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type transferRequest struct {
	NewOwnerID   string `json:"newOwnerId"`
	NewOwnerName string `json:"newOwnerName"`
}

// Transfer changes a document's owner, requiring ownership.
func (h *DocumentsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID, role := h.identity(r)

	if _, err := permission.CheckDelete(h.hub.Docs.Lookup, id, userID, role); err != nil {
		writePermissionError(w, err)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewOwnerID == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "newOwnerId is required")
		return
	}

	if err := h.hub.Docs.TransferOwnership(id, req.NewOwnerID, req.NewOwnerName, userID); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	h.hub.EmitDocEvent(protocol.DocEventUpdated, id, userID)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writePermissionError(w http.ResponseWriter, err error) {
	if err == permission.ErrDocumentNotFound {
		WriteError(w, http.StatusNotFound, ErrNotFound, "document not found")
		return
	}
	if err == permission.ErrNotAuthenticated {
		WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "authentication required")
		return
	}
	WriteError(w, http.StatusForbidden, ErrForbidden, err.Error())
}
