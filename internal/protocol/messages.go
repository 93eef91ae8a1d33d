package protocol

import (
	"encoding/json"

	"github.com/QR-Madness/diagrammer-host/internal/store"
)

// AuthRequest carries a session token presented by the client (tag Auth).
type AuthRequest struct {
	Token string `json:"token"`
}

// AuthLoginRequest carries a username/password login attempt (tag AuthLogin).
type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponseMsg reports the outcome of AuthRequest or AuthLoginRequest
// (tag AuthResponse).
type AuthResponseMsg struct {
	Success        bool    `json:"success"`
	UserID         *string `json:"userId,omitempty"`
	Username       *string `json:"username,omitempty"`
	Role           *string `json:"role,omitempty"`
	Token          *string `json:"token,omitempty"`
	TokenExpiresAt *int64  `json:"tokenExpiresAt,omitempty"`
	Error          *string `json:"error,omitempty"`
}

// SyncMessage carries an opaque CRDT sync payload between co-editors of
// the sender's current document (tag Sync). The server never inspects
// Data; it only routes it to the other sessions joined to the same
// document.
type SyncMessage struct {
	DocID string          `json:"docId"`
	Data  json.RawMessage `json:"data"`
}

// AwarenessMessage carries opaque presence/cursor state for the
// sender's current document (tag Awareness), routed the same way as
// SyncMessage but gated on read rather than write access.
type AwarenessMessage struct {
	DocID string          `json:"docId"`
	Data  json.RawMessage `json:"data"`
}

// DocListRequest asks for the full document metadata snapshot (tag DocList).
type DocListRequest struct {
	RequestID string `json:"requestId"`
}

// DocListResponseMsg carries every document's metadata (tag DocList).
type DocListResponseMsg struct {
	RequestID string                   `json:"requestId"`
	Documents []store.DocumentMetadata `json:"documents"`
}

// DocGetRequest asks for one document's full body (tag DocGet).
type DocGetRequest struct {
	RequestID string `json:"requestId"`
	DocID     string `json:"docId"`
}

// DocGetResponseMsg carries a document body or an error (tag DocGet).
type DocGetResponseMsg struct {
	RequestID string         `json:"requestId"`
	Document  store.Document `json:"document,omitempty"`
	Error     *string        `json:"error,omitempty"`
}

// DocSaveRequest creates or updates a document (tag DocSave).
type DocSaveRequest struct {
	RequestID string         `json:"requestId"`
	Document  store.Document `json:"document"`
}

// DocSaveResponseMsg reports a save's outcome (tag DocSave).
type DocSaveResponseMsg struct {
	RequestID string  `json:"requestId"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// DocDeleteRequest deletes a document (tag DocDelete).
type DocDeleteRequest struct {
	RequestID string `json:"requestId"`
	DocID     string `json:"docId"`
}

// DocDeleteResponseMsg reports a delete's outcome (tag DocDelete).
type DocDeleteResponseMsg struct {
	RequestID string  `json:"requestId"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// DocEventType classifies a DocEventMsg.
type DocEventType string

const (
	DocEventCreated DocEventType = "created"
	DocEventUpdated DocEventType = "updated"
	DocEventDeleted DocEventType = "deleted"
)

// DocEventMsg is broadcast to every authenticated session whenever the
// document index changes (tag DocEvent).
type DocEventMsg struct {
	EventType DocEventType            `json:"eventType"`
	DocID     string                  `json:"docId"`
	Metadata  *store.DocumentMetadata `json:"metadata,omitempty"`
	UserID    string                  `json:"userId"`
}

// JoinDocRequest switches a session's current document for sync/awareness
// routing (tag JoinDoc).
type JoinDocRequest struct {
	DocID string `json:"docId"`
}

// ShareEntry is one requested grant or revocation in a DocShareRequest.
// Permission "none" means revoke.
type ShareEntry struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Permission string `json:"permission"`
}

// DocShareRequest updates a document's access list (tag DocShare).
type DocShareRequest struct {
	RequestID string       `json:"requestId"`
	DocID     string       `json:"docId"`
	Shares    []ShareEntry `json:"shares"`
}

// DocShareResponseMsg reports a share update's outcome (tag DocShare).
type DocShareResponseMsg struct {
	RequestID string  `json:"requestId"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// DocTransferRequest reassigns a document's owner (tag DocTransfer).
type DocTransferRequest struct {
	RequestID    string `json:"requestId"`
	DocID        string `json:"docId"`
	NewOwnerID   string `json:"newOwnerId"`
	NewOwnerName string `json:"newOwnerName"`
}

// DocTransferResponseMsg reports a transfer's outcome (tag DocTransfer).
type DocTransferResponseMsg struct {
	RequestID string  `json:"requestId"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// ErrorResponseMsg is a standalone error not tied to a typed response
// (tag Error).
type ErrorResponseMsg struct {
	RequestID *string `json:"requestId,omitempty"`
	Error     string  `json:"error"`
}
