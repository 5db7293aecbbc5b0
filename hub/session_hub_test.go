package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-storefront/utils"
)

func dialSession(t *testing.T, h *SessionHub, key string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, key)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSessionHub_PublishReachesOnlyOwnSession(t *testing.T) {
	utils.SilenceLoggers()
	h := NewSessionHub()

	mine := dialSession(t, h, "session-a")
	other := dialSession(t, h, "session-b")
	require.Eventually(t, func() bool {
		return h.ClientCount("session-a") == 1 && h.ClientCount("session-b") == 1
	}, time.Second, 10*time.Millisecond)

	h.Publish("session-a", "basket_updated", map[string]int{"revision": 3})

	mine.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := mine.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "basket_updated", msg.Event)
	assert.Equal(t, 3, msg.Data["revision"])

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestSessionHub_Unregister(t *testing.T) {
	utils.SilenceLoggers()
	h := NewSessionHub()

	dialSession(t, h, "session-a")
	require.Eventually(t, func() bool { return h.ClientCount("session-a") == 1 }, time.Second, 10*time.Millisecond)

	h.mutex.Lock()
	var conn *websocket.Conn
	for c := range h.clients {
		conn = c
	}
	h.mutex.Unlock()

	h.Unregister(conn)
	assert.Equal(t, 0, h.ClientCount("session-a"))
}

func TestSessionHub_DropsStalledClient(t *testing.T) {
	utils.SilenceLoggers()
	h := NewSessionHub()
	h.writeWait = 50 * time.Millisecond

	// the client never reads, so the socket buffers fill up
	dialSession(t, h, "session-a")
	require.Eventually(t, func() bool { return h.ClientCount("session-a") == 1 }, time.Second, 10*time.Millisecond)

	big := strings.Repeat("x", 256*1024)
	deadline := time.Now().Add(10 * time.Second)
	for h.ClientCount("session-a") > 0 && time.Now().Before(deadline) {
		start := time.Now()
		h.Publish("session-a", "basket_updated", big)
		assert.True(t, time.Since(start) < 2*time.Second, "a write must not outlast its deadline")
	}
	assert.Zero(t, h.ClientCount("session-a"))
}
