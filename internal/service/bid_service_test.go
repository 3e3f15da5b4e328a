package service

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newBidSvc(t *testing.T, f *fakeStore, bc event.Broadcaster) *bidService {
	t.Helper()
	if bc == nil {
		bc = event.Discard{}
	}
	svc := NewBidService(f, f, bc, 3).(*bidService)
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedAuction stores an active auction at CHF 1'000 with a CHF 50
// increment ending in one hour; mutate tweaks it per test.
func seedAuction(f *fakeStore, mutate func(*model.Auction)) *model.Auction {
	a := &model.Auction{
		ID:                1,
		ListingID:         1,
		SellerUID:         "seller",
		StartingPrice:     100_000,
		CurrentBid:        100_000,
		MinIncrement:      5_000,
		EndTime:           testNow.Add(time.Hour),
		AutoExtendMinutes: 5,
		MaxExtensions:     3,
		Status:            model.AuctionStatusActive,
	}
	if mutate != nil {
		mutate(a)
	}
	f.putAuction(a)
	return a
}

func seedWinningBid(f *fakeStore, auctionID uint64, bidder string, amount int64, maxAuto *int64) *model.Bid {
	b := &model.Bid{
		AuctionID:  auctionID,
		BidderUID:  bidder,
		Amount:     amount,
		IsAutoBid:  maxAuto != nil,
		MaxAutoBid: maxAuto,
		Status:     model.BidStatusWinning,
		PlacedAt:   testNow.Add(-time.Minute),
	}
	f.putBid(b)
	return b
}

func int64p(v int64) *int64 { return &v }

func TestPlaceBid_BelowMinimumIncrement(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) { a.TotalBids = 1 })
	seedWinningBid(f, 1, "alice", 100_000, nil)
	svc := newBidSvc(t, f, nil)

	// CHF 1'040 against a 1'000 current bid with a 50 increment.
	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 104_000})
	check.Error(t, err)
	check.True(t, err == ErrBelowMinimumIncrement)
}

func TestPlaceBid_FirstBidOpensAtStartingPrice(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	svc := newBidSvc(t, f, nil)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 100_000})
	check.NoError(t, err)
	check.Equal(t, int64(100_000), res.Auction.CurrentBid)
	check.Equal(t, 1, res.Auction.TotalBids)
	check.Equal(t, 1, res.Auction.UniqueBidders)
	check.Equal(t, model.BidStatusWinning, f.bidByID(res.Bid.ID).Status)
}

func TestPlaceBid_OwnerRejected(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	svc := newBidSvc(t, f, nil)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "seller", Amount: 200_000})
	check.True(t, err == ErrIsOwner)
}

func TestPlaceBid_StateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Auction)
	}{
		{"draft", func(a *model.Auction) { a.Status = model.AuctionStatusDraft }},
		{"cancelled", func(a *model.Auction) { a.Status = model.AuctionStatusCancelled }},
		{"sold", func(a *model.Auction) { a.Status = model.AuctionStatusSold }},
		{"past end time", func(a *model.Auction) { a.EndTime = testNow.Add(-time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore()
			seedAuction(f, tt.mutate)
			svc := newBidSvc(t, f, nil)

			_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 200_000})
			check.True(t, err == ErrAuctionNotActive)
		})
	}
}

func TestPlaceBid_AutoBidCeilingInvalid(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	svc := newBidSvc(t, f, nil)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: 1, BidderUID: "bob", Amount: 150_000, IsAutoBid: true, MaxAutoBid: int64p(140_000),
	})
	check.True(t, err == ErrAutoBidCeilingInvalid)

	_, err = svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: 1, BidderUID: "bob", Amount: 150_000, IsAutoBid: true,
	})
	check.True(t, err == ErrAutoBidCeilingInvalid)
}

func TestPlaceBid_ExtendsNearDeadline(t *testing.T) {
	f := newFakeStore()
	endTime := testNow.Add(2 * time.Minute)
	seedAuction(f, func(a *model.Auction) {
		a.TotalBids = 1
		a.EndTime = endTime
	})
	seedWinningBid(f, 1, "alice", 100_000, nil)
	bc := &captureBroadcaster{}
	svc := newBidSvc(t, f, bc)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 105_000})
	check.NoError(t, err)
	check.True(t, res.Extended)
	check.Equal(t, endTime.Add(5*time.Minute), res.Auction.EndTime)
	check.Equal(t, 1, res.Auction.ExtensionCount)

	extEvents := bc.byType(event.TypeAuctionExtended)
	check.Equal(t, 1, len(extEvents))
	check.Equal(t, 1, extEvents[0].ExtensionCount)
}

func TestPlaceBid_NoExtensionOutsideWindow(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil) // ends in an hour, window is 5 minutes
	svc := newBidSvc(t, f, nil)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 100_000})
	check.NoError(t, err)
	check.False(t, res.Extended)
	check.Equal(t, 0, res.Auction.ExtensionCount)
}

func TestPlaceBid_ExtensionBound(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) {
		a.EndTime = testNow.Add(time.Minute)
		a.ExtensionCount = 3 // already at max
		a.TotalBids = 1
	})
	seedWinningBid(f, 1, "alice", 100_000, nil)
	svc := newBidSvc(t, f, nil)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 105_000})
	check.NoError(t, err)
	check.False(t, res.Extended)
	check.Equal(t, 3, res.Auction.ExtensionCount)
	check.Equal(t, testNow.Add(time.Minute), res.Auction.EndTime)
}

func TestPlaceBid_AutoBidCountersManual(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) {
		a.CurrentBid = 120_000
		a.TotalBids = 1
		a.UniqueBidders = 1
	})
	// Alice's automatic bid leads at CHF 1'200 with a CHF 2'000 ceiling.
	prev := seedWinningBid(f, 1, "alice", 120_000, int64p(200_000))
	bc := &captureBroadcaster{}
	svc := newBidSvc(t, f, bc)

	// Bob bids CHF 1'250 manually; Alice's proxy answers at 1'300.
	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 125_000})
	check.NoError(t, err)
	check.Equal(t, int64(130_000), res.Auction.CurrentBid)
	check.Equal(t, 3, res.Auction.TotalBids)
	check.Equal(t, 2, res.Auction.UniqueBidders)

	// Bob's bid is recorded but immediately outbid.
	check.Equal(t, model.BidStatusOutbid, f.bidByID(res.Bid.ID).Status)
	// Alice's old row becomes an auto-bid history step.
	check.Equal(t, model.BidStatusActive, f.bidByID(prev.ID).Status)

	winning, err := f.FindWinning(context.Background(), 1)
	check.NoError(t, err)
	check.NotNil(t, winning)
	check.Equal(t, "alice", winning.BidderUID)
	check.Equal(t, int64(130_000), winning.Amount)

	check.Equal(t, 2, len(bc.byType(event.TypeBidPlaced)))
	outbid := bc.byType(event.TypeOutbid)
	check.Equal(t, 1, len(outbid))
	check.Equal(t, "bob", outbid[0].BidderUID)
}

func TestPlaceBid_AutoBidCeilingExhausted(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) {
		a.CurrentBid = 120_000
		a.TotalBids = 1
		a.UniqueBidders = 1
	})
	// Ceiling of CHF 1'280 cannot cover the 1'300 needed to counter.
	prev := seedWinningBid(f, 1, "alice", 120_000, int64p(128_000))
	bc := &captureBroadcaster{}
	svc := newBidSvc(t, f, bc)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 125_000})
	check.NoError(t, err)
	check.Equal(t, int64(125_000), res.Auction.CurrentBid)
	check.Equal(t, model.BidStatusWinning, f.bidByID(res.Bid.ID).Status)
	check.Equal(t, model.BidStatusOutbid, f.bidByID(prev.ID).Status)

	outbid := bc.byType(event.TypeOutbid)
	check.Equal(t, 1, len(outbid))
	check.Equal(t, "alice", outbid[0].BidderUID)
}

func TestPlaceBid_AutoBidBattle(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) {
		a.CurrentBid = 120_000
		a.TotalBids = 1
		a.UniqueBidders = 1
	})
	seedWinningBid(f, 1, "alice", 120_000, int64p(200_000))
	svc := newBidSvc(t, f, nil)

	// Bob's proxy tops out at CHF 1'400; Alice's at 2'000. Alice must end
	// up leading one increment above Bob's exhausted ceiling.
	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: 1, BidderUID: "bob", Amount: 125_000, IsAutoBid: true, MaxAutoBid: int64p(140_000),
	})
	check.NoError(t, err)

	winning, err := f.FindWinning(context.Background(), 1)
	check.NoError(t, err)
	check.NotNil(t, winning)
	check.Equal(t, "alice", winning.BidderUID)
	check.True(t, winning.Amount > 140_000-5_000)
	check.Equal(t, res.Auction.CurrentBid, winning.Amount)
}

func TestPlaceBid_SingleLeaderInvariant(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	svc := newBidSvc(t, f, nil)

	bidders := []struct {
		uid    string
		amount int64
	}{
		{"bob", 100_000},
		{"carol", 110_000},
		{"bob", 120_000},
		{"dave", 130_000},
	}
	for _, b := range bidders {
		_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: b.uid, Amount: b.amount})
		check.NoError(t, err)

		winners := 0
		for _, bid := range f.bids {
			if bid.Status == model.BidStatusWinning {
				winners++
			}
		}
		check.Equal(t, 1, winners)
	}

	a, _ := f.FindByID(context.Background(), 1)
	check.Equal(t, 4, a.TotalBids)
	check.Equal(t, 3, a.UniqueBidders)
	check.Equal(t, int64(130_000), a.CurrentBid)
}

func TestPlaceBid_ReserveMetMonotonic(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, func(a *model.Auction) { a.ReservePrice = int64p(150_000) })
	svc := newBidSvc(t, f, nil)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 100_000})
	check.NoError(t, err)
	check.False(t, res.Auction.ReserveMet)

	res, err = svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "carol", Amount: 160_000})
	check.NoError(t, err)
	check.True(t, res.Auction.ReserveMet)
}

func TestPlaceBid_RetriesOnVersionConflict(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	f.conflictsLeft = 1
	svc := newBidSvc(t, f, nil)

	res, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 100_000})
	check.NoError(t, err)
	check.Equal(t, int64(100_000), res.Auction.CurrentBid)
}

func TestPlaceBid_RetryBudgetExhausted(t *testing.T) {
	f := newFakeStore()
	seedAuction(f, nil)
	f.conflictsLeft = 10
	svc := newBidSvc(t, f, nil)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 1, BidderUID: "bob", Amount: 100_000})
	check.True(t, err == ErrStaleSnapshot)
}

func TestPlaceBid_NotFound(t *testing.T) {
	f := newFakeStore()
	svc := newBidSvc(t, f, nil)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{AuctionID: 42, BidderUID: "bob", Amount: 100_000})
	check.True(t, err == ErrNotFound)
}
