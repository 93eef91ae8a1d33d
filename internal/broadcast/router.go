// Package broadcast implements the document-scoped fan-out router: one
// channel of envelopes, filtered per-consumer by document membership.
package broadcast

import "github.com/QR-Madness/diagrammer-host/internal/session"

// Envelope is one message queued for fan-out. A zero DocID means
// "deliver to every authenticated session"; a zero ExcludeSessionID
// means "exclude nobody" (valid session ids start at 1).
type Envelope struct {
	DocID            string
	ExcludeSessionID uint64
	Data             []byte
}

// Router fans envelopes out to the sessions in a Registry, filtering
// each by current document membership and the originating sender.
type Router struct {
	registry *session.Registry
}

// NewRouter builds a router over the given session table.
func NewRouter(registry *session.Registry) *Router {
	return &Router{registry: registry}
}

// Publish delivers env to every session that should receive it. A full
// per-session outbound queue drops the message for that session only;
// it never blocks or slows down delivery to other sessions.
func (r *Router) Publish(env Envelope) {
	for _, s := range r.registry.All() {
		if env.ExcludeSessionID != 0 && s.ID == env.ExcludeSessionID {
			continue
		}
		if env.DocID != "" {
			if !s.InDocID(env.DocID) {
				continue
			}
		} else if !s.IsAuthenticated() {
			continue
		}
		s.Send(env.Data)
	}
}

// BroadcastGlobal delivers data to every authenticated session except
// excludeSessionID (0 to exclude nobody).
func (r *Router) BroadcastGlobal(data []byte, excludeSessionID uint64) {
	r.Publish(Envelope{ExcludeSessionID: excludeSessionID, Data: data})
}

// BroadcastToDoc delivers data to every session currently joined to
// docID except excludeSessionID.
func (r *Router) BroadcastToDoc(docID string, data []byte, excludeSessionID uint64) {
	r.Publish(Envelope{DocID: docID, ExcludeSessionID: excludeSessionID, Data: data})
}
