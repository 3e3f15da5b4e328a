package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/motoauto/auction-backend/internal/auction"
	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/repository"
	"gorm.io/gorm"
)

type PlaceBidInput struct {
	AuctionID  uint64
	BidderUID  string
	Amount     int64 // rappen
	IsAutoBid  bool
	MaxAutoBid *int64
}

type PlaceBidResult struct {
	Bid      *model.Bid
	Auction  *model.Auction
	Extended bool
}

type BidService interface {
	PlaceBid(ctx context.Context, in PlaceBidInput) (*PlaceBidResult, error)
}

type bidService struct {
	auctions    repository.AuctionRepository
	bids        repository.BidRepository
	broadcaster event.Broadcaster
	maxRetries  int
	now         func() time.Time
}

func NewBidService(auctions repository.AuctionRepository, bids repository.BidRepository, broadcaster event.Broadcaster, maxRetries int) BidService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &bidService{
		auctions:    auctions,
		bids:        bids,
		broadcaster: broadcaster,
		maxRetries:  maxRetries,
		now:         time.Now,
	}
}

// PlaceBid validates the bid against a consistent snapshot, resolves any
// automatic counter-bids, decides the anti-snipe extension and commits the
// whole round atomically. Version conflicts are retried here with jittered
// backoff; the commit logic itself stays conflict-free.
func (s *bidService) PlaceBid(ctx context.Context, in PlaceBidInput) (*PlaceBidResult, error) {
	for attempt := 0; ; attempt++ {
		res, err := s.tryPlaceBid(ctx, in)
		if err == nil || !errors.Is(err, repository.ErrVersionConflict) {
			return res, err
		}
		if attempt+1 >= s.maxRetries {
			return nil, ErrStaleSnapshot
		}
		backoff := time.Duration(attempt+1)*20*time.Millisecond + time.Duration(rand.Intn(20))*time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (s *bidService) tryPlaceBid(ctx context.Context, in PlaceBidInput) (*PlaceBidResult, error) {
	a, err := s.auctions.FindByID(ctx, in.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	now := s.now()

	if !auction.DeriveState(a, now).Biddable() {
		return nil, ErrAuctionNotActive
	}
	if a.SellerUID == in.BidderUID {
		return nil, ErrIsOwner
	}
	if in.Amount < auction.NextMinimumBid(a) {
		return nil, ErrBelowMinimumIncrement
	}
	if in.IsAutoBid && (in.MaxAutoBid == nil || *in.MaxAutoBid < in.Amount) {
		return nil, ErrAutoBidCeilingInvalid
	}

	snapshot := a.Version
	prev, err := s.bids.FindWinning(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	hasPrior, err := s.bids.HasBidFrom(ctx, a.ID, in.BidderUID)
	if err != nil {
		return nil, err
	}

	incoming := &model.Bid{
		AuctionID:  a.ID,
		BidderUID:  in.BidderUID,
		Amount:     in.Amount,
		IsAutoBid:  in.IsAutoBid,
		MaxAutoBid: in.MaxAutoBid,
		PlacedAt:   now,
	}
	inserted := []*model.Bid{incoming}

	// Auto-bid battle: the superseded leader counters instantly through
	// its ceiling, one increment above the competing amount, until one
	// side's ceiling is exhausted. Each step appends a bid row, so the
	// ledger keeps the full history.
	leader := incoming
	challenger := prev
	if challenger != nil && challenger.BidderUID == in.BidderUID {
		challenger = nil
	}
	for challenger != nil && challenger.IsAutoBid && challenger.MaxAutoBid != nil {
		need := leader.Amount + auction.IncrementAt(a, leader.Amount)
		if *challenger.MaxAutoBid < need {
			break // ceiling exhausted, challenger stays outbid
		}
		counter := &model.Bid{
			AuctionID:  a.ID,
			BidderUID:  challenger.BidderUID,
			Amount:     need,
			IsAutoBid:  true,
			MaxAutoBid: challenger.MaxAutoBid,
			PlacedAt:   now,
		}
		inserted = append(inserted, counter)
		leader, challenger = counter, leader
	}
	winner := inserted[len(inserted)-1]

	// Status assignment: the final leader wins the round; superseded steps
	// of an automatic bid stay `active`, everything else demotes to outbid.
	lastRowOf := make(map[string]*model.Bid, 2)
	for _, b := range inserted {
		lastRowOf[b.BidderUID] = b
	}
	for _, b := range inserted {
		switch {
		case b == winner:
			b.Status = model.BidStatusWinning
		case b.IsAutoBid && lastRowOf[b.BidderUID] != b:
			b.Status = model.BidStatusActive
		default:
			b.Status = model.BidStatusOutbid
		}
	}

	round := &repository.BidRound{
		Auction:         a,
		SnapshotVersion: snapshot,
		NewBids:         inserted,
	}
	if prev != nil {
		if prev.IsAutoBid && lastRowOf[prev.BidderUID] != nil {
			round.HistoryIDs = append(round.HistoryIDs, prev.ID)
		} else {
			round.OutbidIDs = append(round.OutbidIDs, prev.ID)
		}
	}

	a.CurrentBid = winner.Amount
	a.TotalBids += len(inserted)
	if !hasPrior {
		a.UniqueBidders++
	}
	if !a.ReserveMet {
		if a.ReservePrice != nil {
			a.ReserveMet = a.CurrentBid >= *a.ReservePrice
		} else {
			a.ReserveMet = a.TotalBids > 0
		}
	}

	// Anti-snipe extension, decided against the same snapshot the commit
	// uses. The window is measured against the current (possibly already
	// extended) end time.
	extended := false
	window := time.Duration(a.AutoExtendMinutes) * time.Minute
	if a.EndTime.Sub(now) <= window && a.ExtensionCount < a.MaxExtensions {
		a.EndTime = a.EndTime.Add(window)
		a.ExtensionCount++
		extended = true
	}

	if err := s.auctions.CommitBidRound(ctx, round); err != nil {
		return nil, err
	}

	s.publishRound(a, prev, inserted, winner, extended)

	return &PlaceBidResult{Bid: incoming, Auction: a, Extended: extended}, nil
}

// publishRound emits one event per committed transition: a bid_placed per
// appended bid row, an outbid per bidder who lost leadership, and an
// auction_extended when the deadline moved.
func (s *bidService) publishRound(a *model.Auction, prev *model.Bid, inserted []*model.Bid, winner *model.Bid, extended bool) {
	for _, b := range inserted {
		ev := event.New(event.TypeBidPlaced, a.ID)
		ev.BidderUID = b.BidderUID
		ev.Amount = b.Amount
		ev.CurrentBid = a.CurrentBid
		s.broadcaster.Publish(ev)
	}

	losers := make(map[string]bool, 2)
	if prev != nil && prev.BidderUID != winner.BidderUID {
		losers[prev.BidderUID] = true
	}
	for _, b := range inserted {
		if b.BidderUID != winner.BidderUID {
			losers[b.BidderUID] = true
		}
	}
	for uid := range losers {
		ev := event.New(event.TypeOutbid, a.ID)
		ev.BidderUID = uid
		ev.CurrentBid = a.CurrentBid
		s.broadcaster.Publish(ev)
	}

	if extended {
		ev := event.New(event.TypeAuctionExtended, a.ID)
		endTime := a.EndTime
		ev.EndTime = &endTime
		ev.ExtensionCount = a.ExtensionCount
		ev.CurrentBid = a.CurrentBid
		s.broadcaster.Publish(ev)
	}
}
