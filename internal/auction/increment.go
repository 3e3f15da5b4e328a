package auction

import "github.com/motoauto/auction-backend/internal/model"

// Tiered bid increments in rappen, keyed by the current bid. These mirror
// the increments customary on Swiss vehicle auctions: 50 CHF below
// 1'000 CHF, then 100, 250 and 500 CHF as the price climbs.
const (
	incrementTier1 = 5_000  // up to 999.99 CHF
	incrementTier2 = 10_000 // up to 4'999.99 CHF
	incrementTier3 = 25_000 // up to 9'999.99 CHF
	incrementTier4 = 50_000 // 10'000 CHF and above
)

// IncrementAt resolves the increment in force at an arbitrary price point,
// honouring a per-auction override. Used mid-round, where the effective
// current bid moves with each automatic counter.
func IncrementAt(a *model.Auction, currentBid int64) int64 {
	if a.MinIncrement > 0 {
		return a.MinIncrement
	}
	return IncrementFor(currentBid)
}

func IncrementFor(currentBid int64) int64 {
	switch {
	case currentBid >= 1_000_000:
		return incrementTier4
	case currentBid >= 500_000:
		return incrementTier3
	case currentBid >= 100_000:
		return incrementTier2
	default:
		return incrementTier1
	}
}
