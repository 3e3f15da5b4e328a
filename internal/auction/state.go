// Package auction holds the pure bidding-engine logic: lifecycle state
// derivation, increment rules and commission math. Nothing in this package
// performs I/O, so every function is safe for concurrent callers.
package auction

import (
	"time"

	"github.com/motoauto/auction-backend/internal/model"
)

type State string

const (
	StateDraft     State = "draft"
	StateActive    State = "active"
	StateExtended  State = "extended"
	StateEnded     State = "ended"
	StateCancelled State = "cancelled"
)

// DeriveState computes the lifecycle state from stored fields and the clock.
// `extended` is a display refinement of `active` once at least one
// anti-snipe extension has fired.
func DeriveState(a *model.Auction, now time.Time) State {
	switch a.Status {
	case model.AuctionStatusDraft:
		return StateDraft
	case model.AuctionStatusCancelled:
		return StateCancelled
	case model.AuctionStatusSold, model.AuctionStatusReserveNotMet, model.AuctionStatusExpired:
		return StateEnded
	}
	if !now.Before(a.EndTime) {
		return StateEnded
	}
	if a.ExtensionCount > 0 {
		return StateExtended
	}
	return StateActive
}

// Biddable reports whether the derived state admits new bids.
func (s State) Biddable() bool {
	return s == StateActive || s == StateExtended
}

func TimeRemaining(a *model.Auction, now time.Time) time.Duration {
	if d := a.EndTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// NextMinimumBid is the smallest admissible bid amount in rappen. An
// auction without bids opens at its starting price; afterwards the
// increment in force applies on top of the current bid.
func NextMinimumBid(a *model.Auction) int64 {
	if a.TotalBids == 0 {
		return a.StartingPrice
	}
	return a.CurrentBid + IncrementInForce(a)
}

// IncrementInForce returns the auction's configured increment, falling back
// to the tiered default when none was set.
func IncrementInForce(a *model.Auction) int64 {
	return IncrementAt(a, a.CurrentBid)
}
