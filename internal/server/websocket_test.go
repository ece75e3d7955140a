package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/hxchat/internal/testhelpers"
)

const receiveTimeout = 2 * time.Second

func connectClients(t *testing.T, srv *Server, url string, n int) []*websocket.Conn {
	t.Helper()

	conns := make([]*websocket.Conn, 0, n)
	for i := 0; i < n; i++ {
		conn, err := testhelpers.ConnectWebSocket(url)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		conns = append(conns, conn)
	}

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == n },
		receiveTimeout, 10*time.Millisecond, "clients were not registered")
	return conns
}

func TestChatBroadcastReachesEveryClient(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conns := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 2)
	alice, bob := conns[0], conns[1]

	require.NoError(t, testhelpers.SendChatMessage(alice, "alice", "hi"))

	for name, conn := range map[string]*websocket.Conn{"sender": alice, "other": bob} {
		fragment, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
		require.NoError(t, err, name)
		assert.Contains(t, fragment, `id="message-list"`, name)
		assert.Equal(t, 1, strings.Count(fragment, "<strong>alice</strong>: hi</li>"), name)
	}

	assert.Equal(t, 1, srv.State().Chat.Len())
}

func TestChatBroadcastCarriesWholeHistory(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.SendChatMessage(conn, "alice", "first"))
	_, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.NoError(t, err)

	require.NoError(t, testhelpers.SendChatMessage(conn, "bob", "second"))
	fragment, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.NoError(t, err)

	first := strings.Index(fragment, "first")
	second := strings.Index(fragment, "second")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestChatMessagesAreEscaped(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.SendChatMessage(conn, "<b>mallory</b>", "<script>alert(1)</script>"))
	fragment, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.NoError(t, err)

	assert.NotContains(t, fragment, "<script>")
	assert.Contains(t, fragment, "&lt;script&gt;")
}

func TestChatEmptyFieldsAreDropped(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conns := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 2)

	require.NoError(t, testhelpers.SendChatMessage(conns[0], "", "hi"))
	require.NoError(t, testhelpers.SendChatMessage(conns[0], "alice", ""))

	testhelpers.ExpectNoMessage(t, conns[1], 300*time.Millisecond)
	assert.Zero(t, srv.State().Chat.Len())
}

func TestChatMalformedPayloadKeepsConnectionOpen(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.SendRawMessage(conn, websocket.TextMessage, []byte("not json")))
	require.NoError(t, testhelpers.SendChatMessage(conn, "alice", "still here"))

	fragment, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.NoError(t, err)
	assert.Contains(t, fragment, "still here")
	assert.Equal(t, 1, srv.State().Chat.Len())
	assert.Equal(t, 1, srv.Hub().ClientCount())
}

func TestChatLateJoinerOnlyGetsLaterBroadcasts(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	wsURL := testhelpers.WebSocketURL(t, ts.URL, "/ws")
	early := connectClients(t, srv, wsURL, 1)[0]

	require.NoError(t, testhelpers.SendChatMessage(early, "alice", "before"))
	_, err := testhelpers.ReceiveFragment(early, receiveTimeout)
	require.NoError(t, err)

	late, err := testhelpers.ConnectWebSocket(wsURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = late.Close() })
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 2 },
		receiveTimeout, 10*time.Millisecond)

	require.NoError(t, testhelpers.SendChatMessage(early, "alice", "after"))
	fragment, err := testhelpers.ReceiveFragment(late, receiveTimeout)
	require.NoError(t, err)
	assert.Contains(t, fragment, "before")
	assert.Contains(t, fragment, "after")
}

func TestChatHistoryShownOnChatPage(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.SendChatMessage(conn, "alice", "hello page"))
	_, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.NoError(t, err)

	resp, body := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/chat", nil, nil)
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, contentTypeHTML)
	assert.Contains(t, body, "hello page")
}

func TestChatDisconnectUnregisters(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.CloseWebSocket(conn))

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 },
		receiveTimeout, 10*time.Millisecond)
}

func TestChatOversizedMessageClosesConnection(t *testing.T) {
	srv := newTestServer(t, func(cfg *Config) { cfg.MaxMessageSize = 64 })
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	require.NoError(t, testhelpers.SendChatMessage(conn, "alice", strings.Repeat("x", 256)))

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 },
		receiveTimeout, 10*time.Millisecond)
	assert.Zero(t, srv.State().Chat.Len())
}

func TestWebSocketOriginPolicy(t *testing.T) {
	srv := newTestServer(t, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"https://chat.example.com"}
	})
	ts := startTestServer(t, srv)

	_, err := testhelpers.ConnectWebSocket(testhelpers.WebSocketURL(t, ts.URL, "/ws"))
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Zero(t, srv.Hub().ClientCount())
}

func TestServerShutdownClosesClients(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)
	conn := connectClients(t, srv, testhelpers.WebSocketURL(t, ts.URL, "/ws"), 1)[0]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err := testhelpers.ReceiveFragment(conn, receiveTimeout)
	require.Error(t, err)
	assert.False(t, srv.Hub().Register(NewClient(nil, srv.Hub(), "10.0.0.1:1", 0)))
}

func TestAddTodoOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := startTestServer(t, srv)

	resp, body := testhelpers.MakeRequest(t, http.MethodPost, ts.URL+"/add",
		testhelpers.FormBody("text", "Buy milk"),
		map[string]string{
			"Content-Type":    "application/x-www-form-urlencoded",
			htmxRequestHeader: "true",
		})
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, body, "<span>Buy milk</span>")

	resp, body = testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/", nil, nil)
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Buy milk")
}
