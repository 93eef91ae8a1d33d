package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/config"
	"github.com/QR-Madness/diagrammer-host/internal/protocol"
	"github.com/QR-Madness/diagrammer-host/internal/session"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Hub) {
	t.Helper()
	hub := newTestHub(t, &config.Config{})
	return NewDispatcher(hub), hub
}

func recvFrame(t *testing.T, sess *session.Session) []byte {
	t.Helper()
	select {
	case frame := <-sess.Outbound:
		return frame
	default:
		t.Fatal("expected a queued frame, found none")
		return nil
	}
}

func TestDispatch_RejectsUnauthenticatedNonAuthMessage(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := session.New()
	defer sess.Close()

	frame, err := protocol.Encode(protocol.DocList, protocol.DocListRequest{})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	reply := recvFrame(t, sess)
	msgType, ok := protocol.DecodeType(reply)
	require.True(t, ok)
	assert.Equal(t, protocol.Error, msgType)

	var errMsg protocol.ErrorResponseMsg
	require.NoError(t, protocol.DecodePayload(reply, &errMsg))
	assert.Equal(t, "NOT_AUTHENTICATED", errMsg.Error)
}

func TestDispatch_DropsEmptyFrame(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := session.New()
	defer sess.Close()

	d.Dispatch(sess, nil)

	select {
	case <-sess.Outbound:
		t.Fatal("expected no response for an empty frame")
	default:
	}
}

func TestDispatch_AuthLogin_WrongPassword(t *testing.T) {
	d, hub := newTestDispatcher(t)
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	require.NoError(t, hub.Users.Add(auth.NewUser("Alice", "alice", hash, auth.RoleUser)))

	sess := session.New()
	defer sess.Close()

	frame, err := protocol.Encode(protocol.AuthLogin, protocol.AuthLoginRequest{Username: "alice", Password: "wrong"})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	reply := recvFrame(t, sess)
	var resp protocol.AuthResponseMsg
	require.NoError(t, protocol.DecodePayload(reply, &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.False(t, sess.IsAuthenticated())
}

func TestDispatch_AuthLogin_NoUserStore(t *testing.T) {
	hub := NewHub(&config.Config{}, nil, nil, newTestHub(t, &config.Config{}).Docs)
	d := NewDispatcher(hub)

	sess := session.New()
	defer sess.Close()

	frame, err := protocol.Encode(protocol.AuthLogin, protocol.AuthLoginRequest{Username: "alice", Password: "x"})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	reply := recvFrame(t, sess)
	var resp protocol.AuthResponseMsg
	require.NoError(t, protocol.DecodePayload(reply, &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Server not configured for login", *resp.Error)
}

func TestDispatch_Auth_InvalidToken(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := session.New()
	defer sess.Close()

	frame, err := protocol.Encode(protocol.Auth, protocol.AuthRequest{Token: "not-a-real-token"})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	reply := recvFrame(t, sess)
	var resp protocol.AuthResponseMsg
	require.NoError(t, protocol.DecodePayload(reply, &resp))
	assert.False(t, resp.Success)
	assert.False(t, sess.IsAuthenticated())
}

func TestDispatch_JoinDoc_SilentlyDroppedWithoutPermission(t *testing.T) {
	d, hub := newTestDispatcher(t)
	_, err := hub.Docs.Save(map[string]any{"id": "d1", "name": "Doc", "ownerId": "owner"})
	require.NoError(t, err)

	sess := session.New()
	sess.Authenticate("intruder", "intruder", string(auth.RoleUser))
	defer sess.Close()

	frame, err := protocol.Encode(protocol.JoinDoc, protocol.JoinDocRequest{DocID: "d1"})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	assert.False(t, sess.InDocID("d1"))
	select {
	case <-sess.Outbound:
		t.Fatal("join-without-permission should be silently dropped, not answered")
	default:
	}
}

func TestDispatch_DocGet_NotFound(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := session.New()
	sess.Authenticate("alice", "alice", string(auth.RoleUser))
	defer sess.Close()

	frame, err := protocol.Encode(protocol.DocGet, protocol.DocGetRequest{DocID: "missing"})
	require.NoError(t, err)
	d.Dispatch(sess, frame)

	reply := recvFrame(t, sess)
	var resp protocol.DocGetResponseMsg
	require.NoError(t, protocol.DecodePayload(reply, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_DOC_NOT_FOUND", *resp.Error)
}
