// Package server wires the application state, templates, WebSocket hub and
// HTTP router into a single Server value.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/store"
	"github.com/Tyrowin/hxchat/internal/view"
	"github.com/Tyrowin/hxchat/web"
)

// Server owns the application state and every component serving it.
type Server struct {
	cfg      *Config
	state    *store.State
	views    *view.Renderer
	assets   fs.FS
	hub      *Hub
	upgrader websocket.Upgrader
	router   *gin.Engine
	http     *http.Server
	now      func() time.Time

	hubStarted atomic.Bool
}

// New loads the templates and builds the router. The hub is not started;
// call Start, or StartHub when serving Router through another server.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := sanitizeConfig(*cfg)

	assets := assetsFS(sanitized.WebDir)
	templates, err := view.Load(assets)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	renderer, err := view.NewRenderer(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	state := store.NewState(sanitized.ChatHistoryLimit)
	origins := newOriginPolicy(sanitized.AllowedOrigins)

	s := &Server{
		cfg:    &sanitized,
		state:  state,
		views:  renderer,
		assets: assets,
		hub:    NewHub(state.Chat, renderer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		now: time.Now,
	}
	s.router = s.SetupRoutes()
	s.http = CreateServer(s.cfg.Port, s.router)

	return s, nil
}

func assetsFS(dir string) fs.FS {
	if dir == "" {
		return web.FS
	}
	return os.DirFS(dir)
}

// StartHub runs the hub event loop in a separate goroutine. Calling it more
// than once has no effect.
func (s *Server) StartHub() {
	if !s.hubStarted.CompareAndSwap(false, true) {
		return
	}
	go s.hub.Run()
	log.Info().Msg("hub started and ready to manage WebSocket connections")
}

// Start starts the hub and serves HTTP on the configured port. It blocks
// until the server stops and returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.StartHub()

	log.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	return StartServer(s.http)
}

// Shutdown closes every WebSocket connection, then stops the HTTP server.
// Both steps share one deadline: the one on ctx, or ShutdownTimeout from now.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.cfg.ShutdownTimeout)
	}

	var hubErr error
	if s.hubStarted.Load() {
		hubErr = s.hub.Shutdown(time.Until(deadline))
	} else {
		s.hub.cancel()
	}

	if err := ShutdownServer(s.http, time.Until(deadline)); err != nil {
		return err
	}

	log.Info().Msg("server shutdown complete")
	return hubErr
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() *Config { return s.cfg }

// State returns the in-memory application state.
func (s *Server) State() *store.State { return s.state }

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine { return s.router }
