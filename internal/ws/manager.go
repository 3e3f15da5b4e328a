package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/motoauto/auction-backend/internal/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Manager upgrades auction watchers to WebSocket connections and streams
// them the auction's event feed. One slow client never blocks the others:
// the feed channel is buffered and drops on overflow, and a client that
// cannot keep up is disconnected.
type Manager struct {
	hub      *event.Hub
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[uint64]int
}

func NewManager(hub *event.Hub) *Manager {
	return &Manager{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		watchers: make(map[uint64]int),
	}
}

// Serve upgrades the request and streams events for one auction until the
// client disconnects.
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request, auctionID uint64) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	feed, cancel := m.hub.Subscribe(auctionID)
	m.track(auctionID, 1)

	c := &client{conn: conn, feed: feed, done: make(chan struct{})}
	go func() {
		defer func() {
			cancel()
			m.track(auctionID, -1)
			conn.Close()
		}()
		go c.readPump()
		c.writePump()
	}()
	return nil
}

// WatcherCount reports how many clients are streaming an auction.
func (m *Manager) WatcherCount(auctionID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchers[auctionID]
}

func (m *Manager) track(auctionID uint64, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers[auctionID] += delta
	if m.watchers[auctionID] <= 0 {
		delete(m.watchers, auctionID)
	}
}

type client struct {
	conn *websocket.Conn
	feed <-chan event.Event
	done chan struct{} // closed when the peer goes away
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.feed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump drains the connection so pongs and close frames are processed;
// inbound payloads are ignored, the stream is one-way.
func (c *client) readPump() {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}
	}
}
