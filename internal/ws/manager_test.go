package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/peterldowns/testy/check"

	"github.com/motoauto/auction-backend/internal/event"
)

func dialTestServer(t *testing.T, m *Manager, auctionID uint64) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Serve(w, r, auctionID); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	check.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The subscription is registered by the server handler; wait for it so
	// a publish right after dialing cannot race it.
	deadline := time.Now().Add(time.Second)
	for m.WatcherCount(auctionID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestServe_StreamsEvents(t *testing.T) {
	hub := event.NewHub()
	m := NewManager(hub)
	conn := dialTestServer(t, m, 7)

	ev := event.New(event.TypeBidPlaced, 7)
	ev.BidderUID = "bob"
	ev.Amount = 105_000
	hub.Publish(ev)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	check.NoError(t, err)

	var got event.Event
	check.NoError(t, json.Unmarshal(payload, &got))
	check.Equal(t, event.TypeBidPlaced, got.Type)
	check.Equal(t, uint64(7), got.AuctionID)
	check.Equal(t, int64(105_000), got.Amount)
}

func TestServe_OtherAuctionFilteredOut(t *testing.T) {
	hub := event.NewHub()
	m := NewManager(hub)
	conn := dialTestServer(t, m, 7)

	hub.Publish(event.New(event.TypeBidPlaced, 8))
	ours := event.New(event.TypeAuctionExtended, 7)
	hub.Publish(ours)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	check.NoError(t, err)

	var got event.Event
	check.NoError(t, json.Unmarshal(payload, &got))
	check.Equal(t, event.TypeAuctionExtended, got.Type)
}

func TestWatcherCount(t *testing.T) {
	hub := event.NewHub()
	m := NewManager(hub)
	check.Equal(t, 0, m.WatcherCount(7))

	conn := dialTestServer(t, m, 7)
	check.Equal(t, 1, m.WatcherCount(7))

	conn.Close()
	deadline := time.Now().Add(time.Second)
	for m.WatcherCount(7) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
