package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/QR-Madness/diagrammer-host/internal/server"
	"github.com/QR-Madness/diagrammer-host/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionHandler upgrades /ws connections and runs each one's
// read/write pumps against the shared dispatcher.
type SessionHandler struct {
	hub        *server.Hub
	dispatcher *server.Dispatcher
}

// NewSessionHandler builds a handler over hub, owning its own
// dispatcher instance.
func NewSessionHandler(hub *server.Hub) *SessionHandler {
	return &SessionHandler{hub: hub, dispatcher: server.NewDispatcher(hub)}
}

// WebSocket upgrades the connection and blocks until it closes,
// registering and later removing the session from the hub.
func (h *SessionHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("session: upgrade failed: %v", err)
		return
	}

	sess := h.hub.Sessions.Add(session.New())
	log.Printf("session: connection %d opened", sess.ID)

	go h.writePump(conn, sess)
	h.readPump(conn, sess)
}

func (h *SessionHandler) readPump(conn *websocket.Conn, sess *session.Session) {
	defer func() {
		h.hub.Sessions.Remove(sess.ID)
		sess.Close()
		conn.Close()
		log.Printf("session: connection %d closed", sess.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session: connection %d read error: %v", sess.ID, err)
			}
			return
		}
		h.dispatcher.Dispatch(sess, frame)
	}
}

func (h *SessionHandler) writePump(conn *websocket.Conn, sess *session.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sess.Outbound:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
