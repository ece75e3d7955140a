// Package server exposes HTTP handlers: the pages, the todo fragment
// endpoints, WebSocket upgrades, and health checks.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/metrics"
	"github.com/Tyrowin/hxchat/internal/view"
)

const contentTypeHTML = "text/html; charset=utf-8"

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "hxchat server is running!")
}

func (s *Server) homeHandler(c *gin.Context) {
	s.renderPage(c, view.PageHome, view.PageData{Todos: s.state.Todos.List()})
}

func (s *Server) chatHandler(c *gin.Context) {
	s.renderPage(c, view.PageChat, view.PageData{Messages: s.state.Chat.List()})
}

func (s *Server) aboutHandler(c *gin.Context) {
	s.renderPage(c, view.PageAbout, view.PageData{Date: formatServerTime(s.now())})
}

// addTodoHandler waits for the configured delay, appends the todo from the
// "text" form field and returns the todo list fragment. Nothing is added if
// the client goes away during the delay.
func (s *Server) addTodoHandler(c *gin.Context) {
	text := c.PostForm("text")

	if err := sleepContext(c.Request.Context(), s.cfg.AddDelay); err != nil {
		log.Debug().Err(err).Msg("add request cancelled during delay")
		c.AbortWithStatus(http.StatusRequestTimeout)
		return
	}

	todo := s.state.Todos.Add(text)
	metrics.Todos.Set(float64(s.state.Todos.Len()))
	log.Debug().Str("id", todo.ID).Str("text", todo.Text).Msg("todo added")

	s.renderTodoList(c)
}

func (s *Server) deleteTodoHandler(c *gin.Context) {
	id := c.Param("id")

	if s.state.Todos.Delete(id) {
		metrics.Todos.Set(float64(s.state.Todos.Len()))
		log.Debug().Str("id", id).Msg("todo deleted")
	}

	s.renderTodoList(c)
}

// webSocketHandler upgrades the request and registers the connection with
// the hub, which starts the client's pumps.
func (s *Server) webSocketHandler(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.String(http.StatusMethodNotAllowed, "Method not allowed. WebSocket endpoint only accepts GET requests.")
		return
	}

	log.MarkHijacked(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("addr", c.Request.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, s.hub, c.Request.RemoteAddr, s.cfg.MaxMessageSize)
	if !s.hub.Register(client) {
		_ = conn.Close()
	}
}

func (s *Server) notFoundHandler(c *gin.Context) {
	s.renderError(c, http.StatusNotFound)
}

func (s *Server) renderPage(c *gin.Context, page string, data view.PageData) {
	data.UseLayout = useLayout(c)
	data.Active = page

	out, err := s.views.Page(page, data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, out)
}

func (s *Server) renderTodoList(c *gin.Context) {
	out, err := s.views.TodoList(s.state.Todos.List())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, out)
}

// formatServerTime formats t as a Finnish short date with medium time style,
// e.g. "18.10.2026 klo 9.05.03". time.Format has no unpadded 24-hour verb.
func formatServerTime(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d klo %d.%02d.%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
