package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster mirrors every event onto a per-auction Redis pub/sub
// channel so other processes (live UI gateways, dashboards) can follow
// auctions without touching the database.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func Channel(auctionID uint64) string {
	return fmt.Sprintf("auction.events.%d", auctionID)
}

// Publish is best-effort: a Redis outage must not fail a committed bid.
func (b *RedisBroadcaster) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event: marshal %s: %v", ev.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, Channel(ev.AuctionID), payload).Err(); err != nil {
		log.Printf("event: redis publish %s: %v", ev.Type, err)
	}
}
