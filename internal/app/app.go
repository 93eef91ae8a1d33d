package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/QR-Madness/diagrammer-host/internal/api"
	"github.com/QR-Madness/diagrammer-host/internal/auth"
	"github.com/QR-Madness/diagrammer-host/internal/config"
	"github.com/QR-Madness/diagrammer-host/internal/server"
	"github.com/QR-Madness/diagrammer-host/internal/store"
)

// App is the main application container: it owns configuration, the
// credential and document stores, the connection hub, and the HTTP
// server, and drives their startup and shutdown order.
type App struct {
	mu sync.RWMutex

	configPath string
	version    string
	config     *config.Config

	users     *auth.Store
	tokens    *auth.TokenIssuer
	docs      *store.DocumentStore
	hub       *server.Hub
	apiServer *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Version    string
}

// New creates a new App instance, loading its configuration but
// wiring nothing else until Initialize runs.
func New(opts Options) (*App, error) {
	app := &App{
		configPath: opts.ConfigPath,
		version:    opts.Version,
		done:       make(chan struct{}),
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.config = cfg

	switch opts.Host {
	case "lan":
		cfg.NetworkMode = config.NetworkLAN
	case "localhost":
		cfg.NetworkMode = config.NetworkLocalhost
	}
	if opts.Port > 0 {
		cfg.Port = opts.Port
	}

	return app, nil
}

// Initialize wires the credential store, document store, hub, and API
// server over the loaded configuration, and bootstraps the first admin
// user if the store is empty.
func (app *App) Initialize(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	usersPath := filepath.Join(app.config.DataDir, "users.json")
	app.users = auth.NewStoreWithPersistence(usersPath)
	app.tokens = auth.NewTokenIssuer(tokenSecret(app.config), time.Duration(app.config.TokenTTLSeconds)*time.Second)
	app.docs = store.NewDocumentStore(app.config.DataDir)

	app.hub = server.NewHub(app.config, app.users, app.tokens, app.docs)
	if err := app.hub.BootstrapAdmin(); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	app.apiServer = api.NewServer(api.ServerConfig{
		Host: app.config.NetworkMode.BindHost(),
		Port: app.config.Port,
	}, app.hub)

	return nil
}

// tokenSecret derives the JWT signing secret from config. Config has no
// dedicated secret field, and a per-process random value would
// invalidate tokens across restarts, so the bootstrap admin's username
// and password seed the secret; without a bootstrap password a fixed
// default string is used.
func tokenSecret(cfg *config.Config) string {
	if cfg.Bootstrap.Password != "" {
		return "diagrammer-host:" + cfg.Bootstrap.Username + ":" + cfg.Bootstrap.Password
	}
	return "diagrammer-host:insecure-default-secret"
}

// Start brings up the listener in the background. The hub records the
// configured port; with a configured port of 0 the listener binds an
// ephemeral port and the recorded port stays 0.
func (app *App) Start(ctx context.Context) error {
	app.mu.RLock()
	apiServer := app.apiServer
	hub := app.hub
	cfg := app.config
	app.mu.RUnlock()

	go func() {
		log.Printf("server: listening on %s:%d", cfg.NetworkMode.BindHost(), cfg.Port)
		hub.MarkStarted(cfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server: listener error: %v", err)
		}
		hub.MarkStopped()
	}()

	return nil
}

// Run initializes, starts, and blocks until a shutdown signal arrives,
// then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("server: received signal %v, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("server: context cancelled, shutting down...")
	case <-app.done:
		log.Printf("server: shutdown requested...")
	}

	return app.Shutdown(context.Background())
}

// Shutdown gracefully tears down the API server.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	log.Println("server: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: error shutting down API server: %v", err)
		}
	}

	log.Println("server: shutdown complete")
	return nil
}

// Stop signals the app to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
