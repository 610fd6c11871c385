// Package api provides the HTTP server: the REST admin API, the overlay
// push channel and the asset files.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"keybrame/internal/config"
	"keybrame/internal/event"
	"keybrame/internal/hotkey"
	"keybrame/internal/media"
	"keybrame/internal/store"
)

const (
	// maxBodyBytes bounds JSON request bodies
	maxBodyBytes = 1 << 20

	// controlDelay lets a shutdown or restart response reach the client
	controlDelay = 500 * time.Millisecond
)

// Deps are the components the server drives.
type Deps struct {
	Store    *store.Store
	Provider *config.Provider
	Engine   *hotkey.Engine
	Library  *media.Library
	Bus      *event.Bus

	// Token, when set, is required as a bearer token on /api/ routes
	Token string

	Version string

	// Index serves the overlay page at "/"
	Index http.Handler
	// Admin serves the bindings editor at "/admin"
	Admin http.Handler

	// OnShutdown is called by POST /api/server/shutdown
	OnShutdown func()

	// OnRestart is called by POST /api/server/restart
	OnRestart func()
}

// Server provides the HTTP API
type Server struct {
	deps Deps
	hub  *Hub

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}
	s.hub = NewHub(deps.Bus, deps.Engine.CurrentImage)
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Hub returns the overlay push hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the routing tree with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/keybindings", s.handleListBindings)
	mux.HandleFunc("POST /api/keybindings", s.handleCreateBinding)
	mux.HandleFunc("PUT /api/keybindings/reorder", s.handleReorder)
	mux.HandleFunc("GET /api/keybindings/{id}", s.handleGetBinding)
	mux.HandleFunc("PUT /api/keybindings/{id}", s.handleUpdateBinding)
	mux.HandleFunc("DELETE /api/keybindings/{id}", s.handleDeleteBinding)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("POST /api/server/shutdown", s.handleShutdown)
	mux.HandleFunc("POST /api/server/restart", s.handleRestart)

	mux.HandleFunc("GET /api/images", s.handleListImages)
	mux.HandleFunc("POST /api/images", s.handleUploadImage)
	mux.HandleFunc("DELETE /api/images/{name}", s.handleDeleteImage)

	mux.HandleFunc("GET /config", s.handleLegacyConfig)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /assets/{file}", s.handleAsset)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	if s.deps.Index != nil {
		mux.Handle("GET /{$}", s.deps.Index)
	}
	if s.deps.Admin != nil {
		mux.Handle("GET /admin", s.deps.Admin)
	}

	return s.logMiddleware(s.authMiddleware(s.recoverMiddleware(mux)))
}

// Serve runs the hub and serves on ln until Shutdown. It blocks.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)
	slog.Info("[api] server listening", "addr", ln.Addr().String())

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server stopped: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to finish
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close drops the listener and every open connection without waiting
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("[api] panic recovered", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token on /api/ routes if one is configured.
// The overlay page, assets and the push channel stay open for browser sources.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Token == "" || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.deps.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("[api] request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// reload rebuilds the snapshot after a mutation. Registered OnReload
// callbacks push it into the engine.
func (s *Server) reload(ctx context.Context) error {
	if _, err := s.deps.Provider.Reload(ctx); err != nil {
		slog.Error("[api] reload failed", "error", err)
		return err
	}
	return nil
}

// afterMutation reloads the snapshot once a change is committed and writes
// body. The reload is detached from the request so a client going away
// cannot leave the engine on the old bindings.
func (s *Server) afterMutation(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := s.reload(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, http.StatusInternalServerError, "changes saved but reload failed", err.Error())
		return
	}
	writeJSON(w, status, body)
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("[api] failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// writeStoreError maps storage errors to status codes
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, media.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, media.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}

func okResponse() map[string]bool {
	return map[string]bool{"success": true}
}
