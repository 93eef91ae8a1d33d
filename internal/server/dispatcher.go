package server

import (
	"log"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/broadcast"
	"github.com/QR-Madness/diagrammer-host/internal/permission"
	"github.com/QR-Madness/diagrammer-host/internal/protocol"
	"github.com/QR-Madness/diagrammer-host/internal/session"
	"github.com/QR-Madness/diagrammer-host/internal/store"
)

// Dispatcher decodes incoming frames, authorises them against a
// session's identity and document membership, and either mutates the
// Hub's state directly or forwards an opaque payload through the
// broadcast router.
type Dispatcher struct {
	hub *Hub
}

// NewDispatcher builds a dispatcher over hub.
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// isAuthMessage reports whether msgType is one of the message types a
// Connected (not yet authenticated) session may send.
func isAuthMessage(msgType byte) bool {
	return msgType == protocol.Auth || msgType == protocol.AuthLogin
}

// Dispatch handles one inbound frame for sess, sending any direct
// response or broadcast envelopes it produces. It never returns an
// error to the caller: malformed frames and authorisation failures are
// handled entirely in-band.
func (d *Dispatcher) Dispatch(sess *session.Session, frame []byte) {
	msgType, ok := protocol.DecodeType(frame)
	if !ok {
		log.Printf("dispatcher: dropped empty frame from session %d", sess.ID)
		return
	}

	if !sess.IsAuthenticated() && !isAuthMessage(msgType) {
		d.sendError(sess, nil, "NOT_AUTHENTICATED")
		return
	}

	switch msgType {
	case protocol.Auth:
		d.handleAuth(sess, frame)
	case protocol.AuthLogin:
		d.handleAuthLogin(sess, frame)
	case protocol.JoinDoc:
		d.handleJoinDoc(sess, frame)
	case protocol.Sync:
		d.handleSync(sess, frame)
	case protocol.Awareness:
		d.handleAwareness(sess, frame)
	case protocol.DocList:
		d.handleDocList(sess, frame)
	case protocol.DocGet:
		d.handleDocGet(sess, frame)
	case protocol.DocSave:
		d.handleDocSave(sess, frame)
	case protocol.DocDelete:
		d.handleDocDelete(sess, frame)
	case protocol.DocShare:
		d.handleDocShare(sess, frame)
	case protocol.DocTransfer:
		d.handleDocTransfer(sess, frame)
	default:
		log.Printf("dispatcher: unknown message type %d from session %d", msgType, sess.ID)
	}
}

func (d *Dispatcher) respond(sess *session.Session, msgType byte, payload any) {
	encoded, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("dispatcher: encode response for session %d: %v", sess.ID, err)
		return
	}
	sess.Send(encoded)
}

func (d *Dispatcher) sendError(sess *session.Session, requestID *string, errMsg string) {
	d.respond(sess, protocol.Error, protocol.ErrorResponseMsg{RequestID: requestID, Error: errMsg})
}

func strPtr(s string) *string { return &s }

func (d *Dispatcher) handleAuth(sess *session.Session, frame []byte) {
	var req protocol.AuthRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid or expired token")})
		return
	}

	if d.hub.Tokens == nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid or expired token")})
		return
	}

	claims, err := d.hub.Tokens.Validate(req.Token)
	if err != nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid or expired token")})
		return
	}

	sess.Authenticate(claims.Subject, claims.Username, string(claims.Role))
	d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{
		Success:  true,
		UserID:   strPtr(claims.Subject),
		Username: strPtr(claims.Username),
		Role:     strPtr(string(claims.Role)),
	})
}

func (d *Dispatcher) handleAuthLogin(sess *session.Session, frame []byte) {
	var req protocol.AuthLoginRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid username or password")})
		return
	}

	if d.hub.Users == nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Server not configured for login")})
		return
	}

	u, ok := d.hub.Users.GetByUsername(req.Username)
	if !ok || !auth.VerifyPassword(req.Password, u.PasswordHash) {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid username or password")})
		return
	}

	_ = d.hub.Users.UpdateLastLogin(u.ID)

	token, expiresAt, err := d.hub.Tokens.Issue(u)
	if err != nil {
		d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{Success: false, Error: strPtr("Invalid username or password")})
		return
	}

	sess.Authenticate(u.ID, u.Username, string(u.Role))
	d.respond(sess, protocol.AuthResponse, protocol.AuthResponseMsg{
		Success:        true,
		UserID:         strPtr(u.ID),
		Username:       strPtr(u.Username),
		Role:           strPtr(string(u.Role)),
		Token:          strPtr(token),
		TokenExpiresAt: &expiresAt,
	})
}

func (d *Dispatcher) identity(sess *session.Session) (userID, role string) {
	userID, _, role = sess.Identity()
	return
}

func (d *Dispatcher) handleJoinDoc(sess *session.Session, frame []byte) {
	var req protocol.JoinDocRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckRead(d.hub.Docs.Lookup, req.DocID, userID, role); err != nil {
		return
	}
	sess.Join(req.DocID)
}

func (d *Dispatcher) handleSync(sess *session.Session, frame []byte) {
	var msg protocol.SyncMessage
	if err := protocol.DecodePayload(frame, &msg); err != nil {
		return
	}
	if !sess.InDocID(msg.DocID) {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckWrite(d.hub.Docs.Lookup, msg.DocID, userID, role); err != nil {
		return
	}

	d.hub.Broadcast.Publish(broadcast.Envelope{DocID: msg.DocID, ExcludeSessionID: sess.ID, Data: frame})
}

func (d *Dispatcher) handleAwareness(sess *session.Session, frame []byte) {
	var msg protocol.AwarenessMessage
	if err := protocol.DecodePayload(frame, &msg); err != nil {
		return
	}
	if !sess.InDocID(msg.DocID) {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckRead(d.hub.Docs.Lookup, msg.DocID, userID, role); err != nil {
		return
	}

	d.hub.Broadcast.Publish(broadcast.Envelope{DocID: msg.DocID, ExcludeSessionID: sess.ID, Data: frame})
}

func (d *Dispatcher) handleDocList(sess *session.Session, frame []byte) {
	var req protocol.DocListRequest
	_ = protocol.DecodePayload(frame, &req)
	d.respond(sess, protocol.DocList, protocol.DocListResponseMsg{
		RequestID: req.RequestID,
		Documents: d.hub.Docs.List(),
	})
}

func (d *Dispatcher) handleDocGet(sess *session.Session, frame []byte) {
	var req protocol.DocGetRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckRead(d.hub.Docs.Lookup, req.DocID, userID, role); err != nil {
		d.respond(sess, protocol.DocGet, protocol.DocGetResponseMsg{RequestID: req.RequestID, Error: strPtr(wireErrorCode(err))})
		return
	}

	doc, err := d.hub.Docs.Get(req.DocID)
	if err != nil {
		d.respond(sess, protocol.DocGet, protocol.DocGetResponseMsg{RequestID: req.RequestID, Error: strPtr(err.Error())})
		return
	}
	d.respond(sess, protocol.DocGet, protocol.DocGetResponseMsg{RequestID: req.RequestID, Document: doc})
}

func (d *Dispatcher) handleDocSave(sess *session.Session, frame []byte) {
	var req protocol.DocSaveRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	docID, _ := req.Document["id"].(string)
	userID, role := d.identity(sess)

	if _, exists := d.hub.Docs.GetMetadata(docID); exists {
		if _, err := permission.CheckWrite(d.hub.Docs.Lookup, docID, userID, role); err != nil {
			d.respond(sess, protocol.DocSave, protocol.DocSaveResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(wireErrorCode(err))})
			return
		}
	}

	req.Document["lastModifiedBy"] = userID

	created, err := d.hub.Docs.Save(req.Document)
	if err != nil {
		d.respond(sess, protocol.DocSave, protocol.DocSaveResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(err.Error())})
		return
	}

	d.respond(sess, protocol.DocSave, protocol.DocSaveResponseMsg{RequestID: req.RequestID, Success: true})

	eventType := protocol.DocEventUpdated
	if created {
		eventType = protocol.DocEventCreated
	}
	d.hub.EmitDocEvent(eventType, docID, userID)
}

func (d *Dispatcher) handleDocDelete(sess *session.Session, frame []byte) {
	var req protocol.DocDeleteRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckDelete(d.hub.Docs.Lookup, req.DocID, userID, role); err != nil {
		d.respond(sess, protocol.DocDelete, protocol.DocDeleteResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(wireErrorCode(err))})
		return
	}

	removed, err := d.hub.Docs.Delete(req.DocID)
	if err != nil {
		d.respond(sess, protocol.DocDelete, protocol.DocDeleteResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(err.Error())})
		return
	}

	d.respond(sess, protocol.DocDelete, protocol.DocDeleteResponseMsg{RequestID: req.RequestID, Success: removed})
	if removed {
		d.hub.EmitDocEvent(protocol.DocEventDeleted, req.DocID, userID)
	}
}

func (d *Dispatcher) handleDocShare(sess *session.Session, frame []byte) {
	var req protocol.DocShareRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckDelete(d.hub.Docs.Lookup, req.DocID, userID, role); err != nil {
		d.respond(sess, protocol.DocShare, protocol.DocShareResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(wireErrorCode(err))})
		return
	}

	shares := make([]store.ShareEntry, len(req.Shares))
	for i, s := range req.Shares {
		shares[i] = store.ShareEntry{UserID: s.UserID, UserName: s.UserName, Permission: s.Permission}
	}

	if err := d.hub.Docs.UpdateShares(req.DocID, shares); err != nil {
		d.respond(sess, protocol.DocShare, protocol.DocShareResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(err.Error())})
		return
	}

	d.respond(sess, protocol.DocShare, protocol.DocShareResponseMsg{RequestID: req.RequestID, Success: true})
	d.hub.EmitDocEvent(protocol.DocEventUpdated, req.DocID, userID)
}

func (d *Dispatcher) handleDocTransfer(sess *session.Session, frame []byte) {
	var req protocol.DocTransferRequest
	if err := protocol.DecodePayload(frame, &req); err != nil {
		return
	}

	userID, role := d.identity(sess)
	if _, err := permission.CheckDelete(d.hub.Docs.Lookup, req.DocID, userID, role); err != nil {
		d.respond(sess, protocol.DocTransfer, protocol.DocTransferResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(wireErrorCode(err))})
		return
	}

	if err := d.hub.Docs.TransferOwnership(req.DocID, req.NewOwnerID, req.NewOwnerName, userID); err != nil {
		d.respond(sess, protocol.DocTransfer, protocol.DocTransferResponseMsg{RequestID: req.RequestID, Success: false, Error: strPtr(err.Error())})
		return
	}

	d.respond(sess, protocol.DocTransfer, protocol.DocTransferResponseMsg{RequestID: req.RequestID, Success: true})
	d.hub.EmitDocEvent(protocol.DocEventUpdated, req.DocID, userID)
}

// wireErrorCode translates a permission error into its ERR_* wire
// code; anything else falls back to its own message.
func wireErrorCode(err error) string {
	if denied, ok := err.(*permission.DeniedError); ok {
		return denied.Code()
	}
	switch err {
	case permission.ErrDocumentNotFound:
		return permission.ErrCodeDocNotFound
	case permission.ErrNotAuthenticated:
		return permission.ErrCodeNotAuthenticated
	default:
		return err.Error()
	}
}
