package api

import (
	"bytes"
	"encoding/json"
	"io"
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

func newTestRouterHub(t *testing.T) *server.Hub {
	t.Helper()
	users := auth.NewStore()
	tokens := auth.NewTokenIssuer("router-test-secret", time.Hour)
	docs := store.NewDocumentStore(t.TempDir())
	return server.NewHub(&config.Config{}, users, tokens, docs)
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(newTestRouterHub(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_StatusIsPublic(t *testing.T) {
	router := NewRouter(newTestRouterHub(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UsersRequiresAdmin(t *testing.T) {
	router := NewRouter(newTestRouterHub(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_DocumentsRequiresAuth(t *testing.T) {
	router := NewRouter(newTestRouterHub(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LoginThenListDocuments(t *testing.T) {
	hub := newTestRouterHub(t)
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, hub.Users.Add(auth.NewUser("Alice", "alice", hash, auth.RoleUser)))

	router := NewRouter(hub)

	loginBody, _ := json.Marshal(map[string]string{"username": "alice", "password": "hunter2"})
	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(loginBody))
	loginRec := httptest.NewRecorder()
	router.ServeHTTP(loginRec, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)

	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(loginRec.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Data.Token)

	docsReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	docsReq.Header.Set("Authorization", "Bearer "+loginResp.Data.Token)
	docsRec := httptest.NewRecorder()
	router.ServeHTTP(docsRec, docsReq)

	assert.Equal(t, http.StatusOK, docsRec.Code)
}

func TestNewServer_RouterIsWired(t *testing.T) {
	hub := newTestRouterHub(t)
	srv := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, hub)
	require.NotNil(t, srv.Router())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "OK", string(body))
}
