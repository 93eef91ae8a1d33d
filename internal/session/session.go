// Package session implements the per-connection state machine and
// outbound message queue for a connected client.
package session

import (
	"sync"
	"sync/atomic"
)

// State is a session's place in the Connected -> Authenticated ->
// InDoc(docId) state machine.
type State int

const (
	// Connected is the initial state: only Auth/AuthLogin are accepted.
	Connected State = iota
	// Authenticated has a verified identity but no current document.
	Authenticated
	// InDoc has joined a document and may send Sync/Awareness traffic
	// for it.
	InDoc
)

// outboundQueueSize bounds each session's pending-write buffer; a full
// queue drops the newest message for that session only, isolating slow
// clients from fast ones.
const outboundQueueSize = 256

var nextID uint64

// Session is the server-side object for one live client connection.
type Session struct {
	ID uint64

	mu            sync.RWMutex
	state         State
	userID        string
	username      string
	role          string
	currentDocID  string

	// Outbound carries frames queued for the connection's writer pump.
	Outbound chan []byte
}

// New allocates a session with a fresh, process-wide unique connection
// id and a bounded outbound queue.
func New() *Session {
	return &Session{
		ID:       atomic.AddUint64(&nextID, 1),
		state:    Connected,
		Outbound: make(chan []byte, outboundQueueSize),
	}
}

// State returns the session's current state machine position.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticate transitions Connected -> Authenticated, recording the
// verified identity.
func (s *Session) Authenticate(userID, username, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.username = username
	s.role = role
	s.state = Authenticated
	s.currentDocID = ""
}

// IsAuthenticated reports whether Authenticate has been called.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated || s.state == InDoc
}

// Identity returns the authenticated userID, username, and role. All
// three are empty if the session is not yet authenticated.
func (s *Session) Identity() (userID, username, role string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.username, s.role
}

// Join transitions Authenticated/InDoc -> InDoc(docID), switching the
// session's current document.
func (s *Session) Join(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDocID = docID
	s.state = InDoc
}

// CurrentDocID returns the joined document id, or "" if not in a
// document.
func (s *Session) CurrentDocID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDocID
}

// InDocID reports whether the session is currently joined to docID.
func (s *Session) InDocID(docID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == InDoc && s.currentDocID == docID
}

// Send enqueues a frame for delivery, dropping it if the session's
// outbound queue is full rather than blocking the caller.
func (s *Session) Send(frame []byte) (delivered bool) {
	select {
	case s.Outbound <- frame:
		return true
	default:
		return false
	}
}

// Close shuts down the outbound queue, causing the writer pump to
// drain and exit.
func (s *Session) Close() {
	close(s.Outbound)
}
