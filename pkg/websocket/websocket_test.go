package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"HerShield/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))
	assert.Error(t, ValidateConfig(nil))

	cfg := DefaultConfig()
	cfg.HeartbeatInterval = cfg.ConnectionTimeout
	assert.Error(t, ValidateConfig(cfg))

	cfg = DefaultConfig()
	cfg.MaxMessageSize = 0
	assert.Error(t, ValidateConfig(cfg))
}

func newFeedServer(t *testing.T, hub *sse.Hub) (*httptest.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	feed, err := NewFeed(hub, nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/ws", feed.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFeedRelaysHubEvents(t *testing.T) {
	hub := sse.NewHub(time.Minute, 0)
	_, url := newFeedServer(t, hub)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := hub.PublishJSON("alert.triggered", map[string]any{"alert_id": 7})
	require.NoError(t, err)
	hub.Publish("note", "plain text")

	msg := readMessage(t, conn)
	assert.Equal(t, "alert.triggered", msg.Type)
	assert.EqualValues(t, 1, msg.ID)
	var payload map[string]int
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, 7, payload["alert_id"])

	msg = readMessage(t, conn)
	assert.Equal(t, "note", msg.Type)
	assert.JSONEq(t, `"plain text"`, string(msg.Data))
}

func TestFeedAnswersPing(t *testing.T) {
	hub := sse.NewHub(time.Minute, 0)
	_, url := newFeedServer(t, hub)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypePong, msg.Type)
}

func TestFeedUnregistersOnClose(t *testing.T) {
	hub := sse.NewHub(time.Minute, 0)
	_, url := newFeedServer(t, hub)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedRejectsForeignOrigin(t *testing.T) {
	hub := sse.NewHub(time.Minute, 0)
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://admin.example.com"}
	feed, err := NewFeed(hub, cfg)
	require.NoError(t, err)
	r := gin.New()
	r.GET("/ws", feed.Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
