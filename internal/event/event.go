// Package event carries the engine's state-change facts to subscribers.
// The engine publishes exactly once per committed transition; delivery
// beyond the Broadcaster boundary (UI, notifications, email) is the
// subscriber's concern.
package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBidPlaced       Type = "bid_placed"
	TypeOutbid          Type = "outbid"
	TypeAuctionExtended Type = "auction_extended"
	TypeAuctionEnded    Type = "auction_ended"
)

// Event is the minimum data subscribers need. Amount fields are in rappen;
// pointer fields are only set where the type calls for them.
type Event struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	AuctionID      uint64     `json:"auction_id"`
	BidderUID      string     `json:"bidder_uid,omitempty"`
	Amount         int64      `json:"amount,omitempty"`
	CurrentBid     int64      `json:"current_bid,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ExtensionCount int        `json:"extension_count,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func New(typ Type, auctionID uint64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		AuctionID:  auctionID,
		OccurredAt: time.Now().UTC(),
	}
}

// Broadcaster is injected into every engine call site; there is no
// process-wide emitter.
type Broadcaster interface {
	Publish(ev Event)
}

// Fanout republishes each event to all configured sinks in order.
type Fanout []Broadcaster

func (f Fanout) Publish(ev Event) {
	for _, b := range f {
		b.Publish(ev)
	}
}

// Discard drops every event. Useful where a call site has no subscribers,
// e.g. seed tooling and tests.
type Discard struct{}

func (Discard) Publish(Event) {}
