// Package server wires HTTP handlers into a gin engine for the hxchat
// application via routing helpers.
package server

import (
	"io"
	"io/fs"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tyrowin/hxchat/internal/log"
)

const (
	wsPath      = "/ws"
	loadersPath = "/loaders"
)

// SetupRoutes builds the gin engine with middleware and every application
// route. Unmatched routes render the error fragment with status 404.
func (s *Server) SetupRoutes() *gin.Engine {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(log.GinLogger())
	// Recovery must run inside gzip: gzip closes its writer when a panic
	// unwinds through it.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath})))
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, s.recoverPanic))
	r.Use(s.errorPages())
	r.Use(fragmentMode())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn().Err(err).Msg("failed to reset trusted proxies")
	}

	r.GET("/", s.homeHandler)
	r.GET("/chat", s.chatHandler)
	r.GET("/about", s.aboutHandler)
	r.POST("/add", s.addTodoHandler)
	r.DELETE("/delete/:id", s.deleteTodoHandler)
	r.Any(wsPath, s.webSocketHandler)

	r.GET("/health", HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if loaders, err := fs.Sub(s.assets, "loaders"); err == nil {
		r.StaticFS(loadersPath, http.FS(loaders))
	} else {
		log.Warn().Err(err).Msg("static loaders directory unavailable")
	}

	r.NoRoute(s.notFoundHandler)

	return r
}
