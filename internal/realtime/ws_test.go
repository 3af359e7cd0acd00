package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLiveServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := newTestHub(t)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)
	return string(data)
}

func assertNothingArrives(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n },
		2*time.Second, 10*time.Millisecond)
}

func TestServeWS_BroadcastReachesAllConnections(t *testing.T) {
	hub, url := startLiveServer(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForClients(t, hub, 2)

	hub.Broadcast(TaskDeleted{TaskID: 5})

	want := `{"type":"TASK_DELETED","taskId":5}`
	assert.Equal(t, want, readText(t, a))
	assert.Equal(t, want, readText(t, b))
}

func TestServeWS_RelayGoesToPeersOnly(t *testing.T) {
	hub, url := startLiveServer(t)
	sender := dial(t, url)
	peer := dial(t, url)
	waitForClients(t, hub, 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"chat":"hi"}`)))

	assert.Equal(t, `{"chat":"hi"}`, readText(t, peer))
	assertNothingArrives(t, sender)
}

func TestServeWS_BinaryFramesAreDropped(t *testing.T) {
	hub, url := startLiveServer(t)
	sender := dial(t, url)
	peer := dial(t, url)
	waitForClients(t, hub, 2)

	require.NoError(t, sender.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0x00}))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("after")))

	// Only the text frame is relayed, and the sender stays connected.
	assert.Equal(t, "after", readText(t, peer))
	assert.Equal(t, 2, hub.ClientCount())
}

func TestServeWS_ClosedConnectionIsUnregistered(t *testing.T) {
	hub, url := startLiveServer(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForClients(t, hub, 2)

	require.NoError(t, a.Close())
	waitForClients(t, hub, 1)

	hub.Broadcast(TaskDeleted{TaskID: 1})
	assert.Equal(t, `{"type":"TASK_DELETED","taskId":1}`, readText(t, b))
}

func TestServeWS_RejectsDevToolingHandshake(t *testing.T) {
	hub, url := startLiveServer(t)

	dialer := websocket.Dialer{Subprotocols: []string{"vite-hmr"}}
	_, resp, err := dialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestServeWS_CloseDisconnectsClients(t *testing.T) {
	hub, url := startLiveServer(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure),
		"unexpected error: %v", err)
}
