package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"HerShield/pkg/logger"
	"HerShield/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message 定义WebSocket消息结构. Feed messages carry the hub event name in
// Type and its JSON payload in Data.
type Message struct {
	ID        uint64          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Feed relays events of an sse.Hub to WebSocket clients, so dashboards that
// cannot use EventSource see the same stream.
type Feed struct {
	hub      *sse.Hub
	config   *Config
	upgrader websocket.Upgrader
}

func NewFeed(hub *sse.Hub, cfg *Config) (*Feed, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Feed{hub: hub, config: cfg, upgrader: newUpgrader(cfg)}, nil
}

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	up := websocket.Upgrader{
		ReadBufferSize:    cfg.ReadBufferSize,
		WriteBufferSize:   cfg.WriteBufferSize,
		EnableCompression: cfg.EnableCompression,
	}
	if len(cfg.AllowedOrigins) > 0 {
		allowed := make(map[string]bool, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[o] = true
		}
		up.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		}
	}
	return up
}

// connection 表示一个WebSocket连接
type connection struct {
	id     string
	conn   *websocket.Conn
	feed   *Feed
	events <-chan sse.Event
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// Serve upgrades the request and streams hub events until either side closes.
func (f *Feed) Serve(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	client := f.hub.AddClient(id)
	cn := &connection{
		id:     id,
		conn:   conn,
		feed:   f,
		events: client.Events(),
		send:   make(chan []byte, f.config.MessageBufferSize),
		done:   make(chan struct{}),
	}
	logger.Info("live feed connected", zap.String("conn_id", id))

	go cn.writePump()
	cn.readPump()
	f.hub.RemoveClient(id)
	logger.Info("live feed disconnected", zap.String("conn_id", id))
}

func (cn *connection) close() {
	cn.once.Do(func() { close(cn.done) })
}

// readPump 读取消息的协程; it only answers pings and notices the close.
func (cn *connection) readPump() {
	defer func() {
		cn.close()
		cn.conn.Close()
	}()

	cfg := cn.feed.config
	cn.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	cn.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
	cn.conn.SetPongHandler(func(string) error {
		cn.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))
		return nil
	})

	for {
		_, raw, err := cn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.String("conn_id", cn.id), zap.Error(err))
			}
			return
		}
		cn.conn.SetReadDeadline(time.Now().Add(cfg.ConnectionTimeout))

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != MessageTypePing {
			continue
		}
		cn.enqueue(Message{Type: MessageTypePong, Timestamp: time.Now().Unix()})
	}
}

func (cn *connection) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case cn.send <- data:
	default:
		logger.Warn("websocket send buffer full", zap.String("conn_id", cn.id))
	}
}

func eventMessage(ev sse.Event) Message {
	payload := json.RawMessage(ev.Data)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(ev.Data)
	}
	return Message{ID: ev.ID, Type: ev.Name, Data: payload, Timestamp: time.Now().Unix()}
}

// writePump 发送消息的协程
func (cn *connection) writePump() {
	cfg := cn.feed.config
	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		cn.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		cn.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
		return cn.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case <-cn.done:
			return
		case ev := <-cn.events:
			data, err := json.Marshal(eventMessage(ev))
			if err != nil {
				continue
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case data := <-cn.send:
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
