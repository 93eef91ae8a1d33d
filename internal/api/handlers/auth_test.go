package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/config"
	"github.com/QR-Madness/diagrammer-host/internal/server"
	"github.com/QR-Madness/diagrammer-host/internal/store"
)

func newTestAuthHub(t *testing.T) *server.Hub {
	t.Helper()
	users := auth.NewStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	docs := store.NewDocumentStore(t.TempDir())
	return server.NewHub(&config.Config{}, users, tokens, docs)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthLogin_Success(t *testing.T) {
	hub := newTestAuthHub(t)
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, hub.Users.Add(auth.NewUser("Alice", "alice", hash, auth.RoleUser)))

	h := NewAuthHandler(hub)
	rec := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login", loginRequest{Username: "alice", Password: "hunter2"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var login loginResponse
	require.NoError(t, json.Unmarshal(data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.Username)
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	hub := newTestAuthHub(t)
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, hub.Users.Add(auth.NewUser("Alice", "alice", hash, auth.RoleUser)))

	h := NewAuthHandler(hub)
	rec := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login", loginRequest{Username: "alice", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthLogin_NoUserStore(t *testing.T) {
	hub := server.NewHub(&config.Config{}, nil, nil, store.NewDocumentStore(t.TempDir()))
	h := NewAuthHandler(hub)

	rec := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login", loginRequest{Username: "alice", Password: "x"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthLogin_BadBody(t *testing.T) {
	hub := newTestAuthHub(t)
	h := NewAuthHandler(hub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
