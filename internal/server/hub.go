// Package server implements the message dispatcher and listener
// lifecycle that sit on top of the session, broadcast, store, and auth
// packages: it is where an incoming frame becomes an authorised
// mutation or a routed sync payload.
package server

import (
	"log"
	"sync"
	"time"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/broadcast"
	"github.com/QR-Madness/diagrammer-host/internal/config"
	"github.com/QR-Madness/diagrammer-host/internal/protocol"
	"github.com/QR-Madness/diagrammer-host/internal/session"
	"github.com/QR-Madness/diagrammer-host/internal/store"
)

// Hub owns every piece of shared server state a connection needs:
// the credential store, the token issuer, the document store, the
// session table, and the broadcast router. Sessions hold no reference
// to each other, only to the Hub, so peers are always reached by
// looking up an index entry rather than through a direct pointer.
type Hub struct {
	Config *config.Config
	Users  *auth.Store
	Tokens *auth.TokenIssuer
	Docs   *store.DocumentStore

	Sessions  *session.Registry
	Broadcast *broadcast.Router

	mu        sync.RWMutex
	running   bool
	port      int
	startedAt time.Time
}

// NewHub wires a fresh Hub over the given configuration. Users may be
// nil for client-embedded deployments with no login surface, in which
// case username/password logins fail with "Server not configured for login".
func NewHub(cfg *config.Config, users *auth.Store, tokens *auth.TokenIssuer, docs *store.DocumentStore) *Hub {
	registry := session.NewRegistry()
	return &Hub{
		Config:    cfg,
		Users:     users,
		Tokens:    tokens,
		Docs:      docs,
		Sessions:  registry,
		Broadcast: broadcast.NewRouter(registry),
	}
}

// BootstrapAdmin creates the configured first admin user if the
// credential store is empty, the headless equivalent of an interactive
// "create the first admin" first-run flow.
func (h *Hub) BootstrapAdmin() error {
	if h.Users == nil || h.Users.HasAny() {
		return nil
	}
	b := h.Config.Bootstrap
	if b.Username == "" || b.Password == "" {
		return nil
	}

	hash, err := auth.HashPassword(b.Password)
	if err != nil {
		return err
	}
	displayName := b.DisplayName
	if displayName == "" {
		displayName = b.Username
	}
	u := auth.NewUser(displayName, b.Username, hash, auth.RoleAdmin)
	if err := h.Users.Add(u); err != nil {
		return err
	}
	log.Printf("server: bootstrapped admin user %q", b.Username)
	return nil
}

// MarkStarted records that the listener is live on port, for Status().
func (h *Hub) MarkStarted(port int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	h.port = port
	h.startedAt = time.Now()
}

// MarkStopped records that the listener has been torn down.
func (h *Hub) MarkStopped() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}

// IsRunning reports whether MarkStarted has run without a subsequent
// MarkStopped.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Port returns the port passed to the most recent MarkStarted, or 0 if
// never started.
func (h *Hub) Port() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.port
}

// EmitDocEvent broadcasts a DOC_EVENT to every authenticated session,
// looking up the document's current metadata so listers stay in sync
// without a follow-up DOC_LIST round trip. Shared by the wire-protocol
// dispatcher and the admin HTTP surface, the only two places a document
// mutation can originate from.
func (h *Hub) EmitDocEvent(eventType protocol.DocEventType, docID, userID string) {
	meta, _ := h.Docs.GetMetadata(docID)
	evt := protocol.DocEventMsg{EventType: eventType, DocID: docID, UserID: userID}
	if eventType != protocol.DocEventDeleted {
		evt.Metadata = &meta
	}

	encoded, err := protocol.Encode(protocol.DocEvent, evt)
	if err != nil {
		log.Printf("server: encode doc event: %v", err)
		return
	}
	h.Broadcast.BroadcastGlobal(encoded, 0)
}
