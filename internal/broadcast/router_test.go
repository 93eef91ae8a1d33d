package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QR-Madness/diagrammer-host/internal/session"
)

func drain(t *testing.T, s *session.Session) []byte {
	t.Helper()
	select {
	case data := <-s.Outbound:
		return data
	default:
		return nil
	}
}

func TestRouter_GlobalBroadcastToAuthenticatedOnly(t *testing.T) {
	reg := session.NewRegistry()
	authed := reg.Add(session.New())
	authed.Authenticate("user-1", "ada", "user")
	anon := reg.Add(session.New())

	r := NewRouter(reg)
	r.BroadcastGlobal([]byte("hello"), 0)

	assert.Equal(t, []byte("hello"), drain(t, authed))
	assert.Nil(t, drain(t, anon))
}

func TestRouter_ExcludesSender(t *testing.T) {
	reg := session.NewRegistry()
	sender := reg.Add(session.New())
	sender.Authenticate("user-1", "ada", "user")
	other := reg.Add(session.New())
	other.Authenticate("user-2", "bea", "user")

	r := NewRouter(reg)
	r.BroadcastGlobal([]byte("hi"), sender.ID)

	assert.Nil(t, drain(t, sender))
	assert.Equal(t, []byte("hi"), drain(t, other))
}

func TestRouter_DocScopedDelivery(t *testing.T) {
	reg := session.NewRegistry()
	bob := reg.Add(session.New())
	bob.Authenticate("bob", "Bob", "user")
	bob.Join("doc-1")

	carol := reg.Add(session.New())
	carol.Authenticate("carol", "Carol", "user")
	carol.Join("doc-1")

	dave := reg.Add(session.New())
	dave.Authenticate("dave", "Dave", "user")
	dave.Join("doc-3")

	r := NewRouter(reg)
	r.BroadcastToDoc("doc-1", []byte("B1"), bob.ID)

	assert.Nil(t, drain(t, bob))
	assert.Equal(t, []byte("B1"), drain(t, carol))
	assert.Nil(t, drain(t, dave))
}

func TestRouter_FullQueueDropsOnlyThatSession(t *testing.T) {
	reg := session.NewRegistry()
	slow := reg.Add(session.New())
	slow.Authenticate("slow", "Slow", "user")
	fast := reg.Add(session.New())
	fast.Authenticate("fast", "Fast", "user")

	r := NewRouter(reg)
	for i := 0; i < cap(slow.Outbound); i++ {
		require.True(t, slow.Send([]byte("x")))
	}

	r.BroadcastGlobal([]byte("overflow"), 0)

	assert.Equal(t, []byte("x"), drain(t, slow))
	assert.Equal(t, []byte("overflow"), drain(t, fast))
}
