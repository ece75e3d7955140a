package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownBeforeStart(t *testing.T) {
	srv := newTestServer(t, func(cfg *Config) { cfg.Port = "127.0.0.1:0" })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}

func TestShutdownSharesOneDeadline(t *testing.T) {
	srv := newTestServer(t, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	srv.Router().GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusNoContent)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.http.Serve(ln) }()

	srv.StartHub()
	// A pump that never finishes keeps the hub busy until the deadline.
	srv.hub.wg.Add(1)
	t.Cleanup(func() {
		close(release)
		srv.hub.wg.Done()
	})

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("slow request never reached its handler")
	}

	const budget = 400 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	start := time.Now()
	err = srv.Shutdown(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, budget+300*time.Millisecond)
}
