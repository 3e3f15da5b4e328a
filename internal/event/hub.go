package event

import "sync"

// Hub is the in-process broadcaster: one topic per auction id, any number
// of subscribers per topic. Delivery is non-blocking so a stalled
// subscriber can never hold up a bid commit; slow subscribers simply miss
// events and are expected to re-read the auction view.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[chan Event]struct{})}
}

// Subscribe returns a buffered channel receiving every event published for
// the auction, plus a cancel func that closes it.
func (h *Hub) Subscribe(auctionID uint64) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	set, ok := h.subs[auctionID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[auctionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[auctionID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, auctionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.AuctionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
