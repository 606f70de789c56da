package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Event is one server-sent event. ID is assigned by the hub.
type Event struct {
	ID   uint64
	Name string
	Data string
}

func (e Event) format() string {
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Name, e.Data)
}

type Client struct {
	id   string
	ch   chan Event
	done chan struct{}
}

// Hub fans events out to connected clients and keeps the last few for
// Last-Event-ID replay. Slow clients drop events rather than block publishers.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	history  []Event
	maxHist  int
	nextID   uint64
	interval time.Duration
	retryMs  int
}

func NewHub(interval time.Duration, historySize int) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if historySize < 0 {
		historySize = 0
	}
	return &Hub{
		clients:  make(map[string]*Client),
		maxHist:  historySize,
		interval: interval,
		retryMs:  5000,
	}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, ch: make(chan Event, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

// Events is the client's receive channel.
func (c *Client) Events() <-chan Event { return c.ch }

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		delete(h.clients, id)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends data under the event name to every client.
func (h *Hub) Publish(name, data string) Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ev := Event{ID: h.nextID, Name: name, Data: data}
	if h.maxHist > 0 {
		h.history = append(h.history, ev)
		if len(h.history) > h.maxHist {
			h.history = h.history[len(h.history)-h.maxHist:]
		}
	}
	for _, c := range h.clients {
		select {
		case c.ch <- ev:
		default:
		}
	}
	return ev
}

func (h *Hub) PublishJSON(name string, v interface{}) (Event, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return h.Publish(name, string(b)), nil
}

// since returns buffered events newer than lastID.
func (h *Hub) since(lastID uint64) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Event
	for _, ev := range h.history {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Serve streams events to the request until the client disconnects.
func (h *Hub) Serve(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)

	clientID := uuid.NewString()
	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)

	if last, err := strconv.ParseUint(c.GetHeader("Last-Event-ID"), 10, 64); err == nil {
		for _, ev := range h.since(last) {
			c.Writer.Write([]byte(ev.format()))
		}
	}
	flusher.Flush()

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case ev := <-client.ch:
			c.Writer.Write([]byte(ev.format()))
			flusher.Flush()
		}
	}
}
