package server

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/view"
)

const (
	// htmxRequestHeader is set to "true" by htmx on every request it issues.
	htmxRequestHeader = "HX-Request"
	useLayoutKey      = "use_layout"
)

// fragmentMode records whether the response should be wrapped in the page
// layout. htmx requests only want the fragment.
func fragmentMode() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(useLayoutKey, c.GetHeader(htmxRequestHeader) != "true")
		c.Header("Vary", htmxRequestHeader)
		c.Next()
	}
}

func useLayout(c *gin.Context) bool {
	return c.GetBool(useLayoutKey)
}

// errorPages turns errors recorded with c.Error into the 500 error fragment.
// The error detail is only logged.
func (s *Server) errorPages() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || log.IsHijacked(c) || c.Writer.Written() {
			return
		}

		log.Error().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("error", c.Errors.String()).
			Msg("request failed")
		s.renderError(c, http.StatusInternalServerError)
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	log.Error().
		Interface("panic", recovered).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("stack", string(debug.Stack())).
		Msg("recovered from handler panic")
	s.renderError(c, http.StatusInternalServerError)
}

// renderError writes the error fragment with status. It never uses the
// layout.
func (s *Server) renderError(c *gin.Context, status int) {
	out, err := s.views.Page(view.PageError, view.PageData{Status: status})
	if err != nil {
		log.Error().Err(err).Msg("failed to render error page")
		c.AbortWithStatus(status)
		return
	}
	c.Data(status, contentTypeHTML, out)
	c.Abort()
}
