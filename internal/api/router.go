package api

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/QR-Madness/diagrammer-host/internal/api/handlers"
	"github.com/QR-Madness/diagrammer-host/internal/api/middleware"
	"github.com/QR-Madness/diagrammer-host/internal/server"
)

// ServerConfig configures the HTTP listener wrapping the router.
type ServerConfig struct {
	Host string
	Port int
}

// NewRouter builds the full route tree over hub: the WebSocket upgrade
// endpoint, a health check, and the admin HTTP surface under /api/v1.
func NewRouter(hub *server.Hub) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	sessionHandler := handlers.NewSessionHandler(hub)
	r.HandleFunc("/ws", sessionHandler.WebSocket)

	statusHandler := handlers.NewStatusHandler(hub)
	authHandler := handlers.NewAuthHandler(hub)
	usersHandler := handlers.NewUsersHandler(hub)
	docsHandler := handlers.NewDocumentsHandler(hub)

	apiRoutes := r.PathPrefix("/api/v1").Subrouter()
	apiRoutes.HandleFunc("/status", statusHandler.Get).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	admin := apiRoutes.PathPrefix("").Subrouter()
	admin.Use(middleware.RequireAdmin(hub.Tokens))
	admin.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/users", usersHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/role", usersHandler.UpdateRole).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/password", usersHandler.ResetPassword).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", usersHandler.Delete).Methods(http.MethodDelete)

	docs := apiRoutes.PathPrefix("/documents").Subrouter()
	docs.Use(middleware.RequireAuth(hub.Tokens))
	docs.HandleFunc("", docsHandler.List).Methods(http.MethodGet)
	docs.HandleFunc("", docsHandler.Save).Methods(http.MethodPost)
	docs.HandleFunc("/{id}", docsHandler.Get).Methods(http.MethodGet)
	docs.HandleFunc("/{id}", docsHandler.Delete).Methods(http.MethodDelete)
	docs.HandleFunc("/{id}/share", docsHandler.Share).Methods(http.MethodPost)
	docs.HandleFunc("/{id}/transfer", docsHandler.Transfer).Methods(http.MethodPost)

	return r
}

// Server wraps an http.Server bound to a router built over a Hub.
type Server struct {
	router *mux.Router
	http   *http.Server
}

// NewServer builds a Server listening on cfg.Host:cfg.Port, routing
// through the tree NewRouter constructs over hub.
func NewServer(cfg ServerConfig, hub *server.Hub) *Server {
	router := NewRouter(hub)
	return &Server{
		router: router,
		http: &http.Server{
			Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler: router,
		},
	}
}

// Router returns the underlying mux.Router, primarily for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts serving HTTP, blocking until the listener
// fails or Shutdown is called (in which case it returns
// http.ErrServerClosed).
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// to complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
