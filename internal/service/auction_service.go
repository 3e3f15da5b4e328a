package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motoauto/auction-backend/internal/auction"
	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/repository"
	"gorm.io/gorm"
)

type CreateAuctionInput struct {
	ListingID         uint64
	SellerUID         string
	StartingPrice     int64
	ReservePrice      *int64
	MinIncrement      int64
	EndTime           time.Time
	AutoExtendMinutes int
	MaxExtensions     int
}

// AuctionView is the public read model. ReservePrice and payment details
// are redacted according to the viewer.
type AuctionView struct {
	AuctionID            uint64              `json:"auction_id"`
	ListingID            uint64              `json:"listing_id"`
	State                auction.State       `json:"state"`
	Status               model.AuctionStatus `json:"status"`
	TimeRemainingSeconds int64               `json:"time_remaining_seconds"`
	EndTime              time.Time           `json:"end_time"`
	CurrentBid           int64               `json:"current_bid"`
	NextMinimumBid       int64               `json:"next_minimum_bid"`
	TotalBids            int                 `json:"total_bids"`
	UniqueBidders        int                 `json:"unique_bidders"`
	ExtensionCount       int                 `json:"extension_count"`
	MaxExtensions        int                 `json:"max_extensions"`
	ReserveMet           bool                `json:"reserve_met"`
	ReservePrice         *int64              `json:"reserve_price,omitempty"` // owner only
	IsOwner              bool                `json:"is_owner"`
	CanBid               bool                `json:"can_bid"`
	WinnerUID            *string             `json:"winner_uid,omitempty"`
	WinningBid           *int64              `json:"winning_bid,omitempty"`
	PaymentDueAt         *time.Time          `json:"payment_due_at,omitempty"` // owner and winner only
}

// BidView anonymizes competitors for everyone but the auction owner and
// the bidder themselves.
type BidView struct {
	Rank       int             `json:"rank"`
	Bidder     string          `json:"bidder"`
	IsYou      bool            `json:"is_you"`
	Amount     int64           `json:"amount"`
	IsAutoBid  bool            `json:"is_auto_bid"`
	MaxAutoBid *int64          `json:"max_auto_bid,omitempty"` // only on the viewer's own bids
	Status     model.BidStatus `json:"status"`
	PlacedAt   time.Time       `json:"placed_at"`
}

type AuctionService interface {
	Create(ctx context.Context, in CreateAuctionInput) (*model.Auction, error)
	Publish(ctx context.Context, auctionID uint64, callerUID string) (*AuctionView, error)
	Cancel(ctx context.Context, auctionID uint64, callerUID string) (*AuctionView, error)
	GetView(ctx context.Context, auctionID uint64, viewerUID string) (*AuctionView, error)
	ListBids(ctx context.Context, auctionID uint64, viewerUID string) ([]BidView, error)
	CommissionEstimate(ctx context.Context, auctionID uint64, callerUID string) (*auction.CommissionBreakdown, error)
	Settle(ctx context.Context, auctionID uint64) (*model.Auction, error)
	SettleDue(ctx context.Context) (int, error)
	ListEndingSoon(ctx context.Context, within time.Duration, limit int) ([]model.Auction, error)
}

type auctionService struct {
	auctions    repository.AuctionRepository
	bids        repository.BidRepository
	listings    repository.ListingRepository
	broadcaster event.Broadcaster
	terms       auction.CommissionTerms
	paymentDue  time.Duration
	now         func() time.Time
}

func NewAuctionService(
	auctions repository.AuctionRepository,
	bids repository.BidRepository,
	listings repository.ListingRepository,
	broadcaster event.Broadcaster,
	terms auction.CommissionTerms,
	paymentDueDays int,
) AuctionService {
	if paymentDueDays <= 0 {
		paymentDueDays = 7
	}
	return &auctionService{
		auctions:    auctions,
		bids:        bids,
		listings:    listings,
		broadcaster: broadcaster,
		terms:       terms,
		paymentDue:  time.Duration(paymentDueDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

func (s *auctionService) Create(ctx context.Context, in CreateAuctionInput) (*model.Auction, error) {
	if in.StartingPrice <= 0 || in.EndTime.IsZero() {
		return nil, ErrInvalidState
	}
	if in.ReservePrice != nil && *in.ReservePrice < in.StartingPrice {
		return nil, ErrInvalidState
	}
	if _, err := s.listings.FindByID(ctx, in.ListingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// One auction per listing.
	if _, err := s.auctions.FindByListing(ctx, in.ListingID); err == nil {
		return nil, ErrInvalidState
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if in.AutoExtendMinutes <= 0 {
		in.AutoExtendMinutes = 5
	}
	if in.MaxExtensions <= 0 {
		in.MaxExtensions = 3
	}
	a := &model.Auction{
		ListingID:         in.ListingID,
		SellerUID:         in.SellerUID,
		StartingPrice:     in.StartingPrice,
		ReservePrice:      in.ReservePrice,
		MinIncrement:      in.MinIncrement,
		CurrentBid:        in.StartingPrice,
		EndTime:           in.EndTime,
		AutoExtendMinutes: in.AutoExtendMinutes,
		MaxExtensions:     in.MaxExtensions,
		Status:            model.AuctionStatusDraft,
	}
	if err := s.auctions.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *auctionService) Publish(ctx context.Context, auctionID uint64, callerUID string) (*AuctionView, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.SellerUID != callerUID {
		return nil, ErrForbidden
	}
	if a.Status != model.AuctionStatusDraft {
		return nil, ErrInvalidState
	}
	if !a.EndTime.After(s.now()) {
		return nil, ErrInvalidState
	}
	if err := s.auctions.UpdateStatus(ctx, a.ID, a.Version, model.AuctionStatusActive); err != nil {
		return nil, err
	}
	a.Status = model.AuctionStatusActive
	a.Version++
	return s.view(a, callerUID), nil
}

func (s *auctionService) Cancel(ctx context.Context, auctionID uint64, callerUID string) (*AuctionView, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.SellerUID != callerUID {
		return nil, ErrForbidden
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidState
	}
	if err := s.auctions.UpdateStatus(ctx, a.ID, a.Version, model.AuctionStatusCancelled); err != nil {
		return nil, err
	}
	a.Status = model.AuctionStatusCancelled
	a.Version++
	return s.view(a, callerUID), nil
}

// GetView returns the derived read model. A reader observing an expired
// deadline triggers settlement first, so views never show a live auction
// past its end time.
func (s *auctionService) GetView(ctx context.Context, auctionID uint64, viewerUID string) (*AuctionView, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AuctionStatusActive && auction.DeriveState(a, s.now()) == auction.StateEnded {
		if settled, err := s.Settle(ctx, a.ID); err == nil {
			a = settled
		}
	}
	return s.view(a, viewerUID), nil
}

func (s *auctionService) view(a *model.Auction, viewerUID string) *AuctionView {
	now := s.now()
	state := auction.DeriveState(a, now)
	isOwner := viewerUID != "" && viewerUID == a.SellerUID
	isWinner := viewerUID != "" && a.WinnerUID != nil && viewerUID == *a.WinnerUID

	v := &AuctionView{
		AuctionID:            a.ID,
		ListingID:            a.ListingID,
		State:                state,
		Status:               a.Status,
		TimeRemainingSeconds: int64(auction.TimeRemaining(a, now) / time.Second),
		EndTime:              a.EndTime,
		CurrentBid:           a.CurrentBid,
		NextMinimumBid:       auction.NextMinimumBid(a),
		TotalBids:            a.TotalBids,
		UniqueBidders:        a.UniqueBidders,
		ExtensionCount:       a.ExtensionCount,
		MaxExtensions:        a.MaxExtensions,
		ReserveMet:           a.ReserveMet,
		IsOwner:              isOwner,
		CanBid:               state.Biddable() && viewerUID != "" && !isOwner,
	}
	if isOwner {
		v.ReservePrice = a.ReservePrice
	}
	if state == auction.StateEnded {
		v.WinnerUID = a.WinnerUID
		v.WinningBid = a.WinningBid
	}
	if isOwner || isWinner {
		v.PaymentDueAt = a.PaymentDueAt
	}
	return v
}

// ListBids returns the ledger in ranking order. The owner sees real bidder
// identities; everyone else sees stable "Bidder A/B/…" labels assigned by
// best-bid rank, except for their own rows.
func (s *auctionService) ListBids(ctx context.Context, auctionID uint64, viewerUID string) ([]BidView, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	bids, err := s.bids.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	isOwner := viewerUID != "" && viewerUID == a.SellerUID

	labels := make(map[string]string, 4)
	for _, b := range bids {
		if _, ok := labels[b.BidderUID]; !ok {
			labels[b.BidderUID] = fmt.Sprintf("Bidder %s", bidderLabel(len(labels)))
		}
	}

	views := make([]BidView, 0, len(bids))
	for i, b := range bids {
		isSelf := viewerUID != "" && viewerUID == b.BidderUID
		v := BidView{
			Rank:      i + 1,
			Bidder:    labels[b.BidderUID],
			IsYou:     isSelf,
			Amount:    b.Amount,
			IsAutoBid: b.IsAutoBid,
			Status:    b.Status,
			PlacedAt:  b.PlacedAt,
		}
		if isOwner || isSelf {
			v.Bidder = b.BidderUID
		}
		if isSelf {
			v.MaxAutoBid = b.MaxAutoBid
		}
		views = append(views, v)
	}
	return views, nil
}

// bidderLabel yields A, B, …, Z, AA, AB, … for anonymized bidder names.
func bidderLabel(n int) string {
	label := ""
	for {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
		if n < 0 {
			return label
		}
	}
}

// CommissionEstimate prices the platform's take for the owner: against the
// winning bid after settlement, the current bid before.
func (s *auctionService) CommissionEstimate(ctx context.Context, auctionID uint64, callerUID string) (*auction.CommissionBreakdown, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.SellerUID != callerUID {
		return nil, ErrForbidden
	}
	saleAmount := a.CurrentBid
	if a.WinningBid != nil {
		saleAmount = *a.WinningBid
	}
	if a.TotalBids == 0 {
		return nil, ErrNoSaleAmount
	}
	breakdown := auction.CalculateCommission(saleAmount, s.terms)
	return &breakdown, nil
}

// Settle performs the terminal transition once the deadline has passed.
// It is idempotent: concurrent callers race on the version guard and the
// losers adopt the winner's outcome.
func (s *auctionService) Settle(ctx context.Context, auctionID uint64) (*model.Auction, error) {
	a, err := s.find(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return a, nil // already settled, not an error
	}
	if a.Status != model.AuctionStatusActive {
		return nil, ErrAuctionNotEnded
	}
	if auction.DeriveState(a, s.now()) != auction.StateEnded {
		return nil, ErrAuctionNotEnded
	}

	bids, err := s.bids.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	endedAt := a.EndTime
	a.EndedAt = &endedAt

	settlement := &repository.Settlement{Auction: a, SnapshotVersion: a.Version}
	if len(bids) == 0 {
		a.Status = model.AuctionStatusExpired
	} else {
		top := bids[0] // highest amount, earliest commit
		winnerUID := top.BidderUID
		winningBid := top.Amount
		a.WinnerUID = &winnerUID
		a.WinningBid = &winningBid
		if a.ReservePrice == nil || winningBid >= *a.ReservePrice {
			a.Status = model.AuctionStatusSold
			a.ReserveMet = true
			dueAt := endedAt.Add(s.paymentDue)
			a.PaymentDueAt = &dueAt
		} else {
			// Bids exist but the reserve was missed: the seller gets a
			// decision window instead of an automatic sale.
			a.Status = model.AuctionStatusReserveNotMet
		}
		settlement.WonBidID = top.ID
		for _, b := range bids[1:] {
			settlement.LostBidIDs = append(settlement.LostBidIDs, b.ID)
		}
	}

	if err := s.auctions.CommitSettlement(ctx, settlement); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// Someone else settled first; adopt their outcome.
			fresh, ferr := s.find(ctx, auctionID)
			if ferr == nil && fresh.Status.Terminal() {
				return fresh, nil
			}
			return nil, ErrStaleSnapshot
		}
		return nil, err
	}

	ev := event.New(event.TypeAuctionEnded, a.ID)
	if a.WinnerUID != nil {
		ev.BidderUID = *a.WinnerUID
	}
	if a.WinningBid != nil {
		ev.Amount = *a.WinningBid
	}
	ev.CurrentBid = a.CurrentBid
	s.broadcaster.Publish(ev)

	return a, nil
}

// SettleDue sweeps auctions past their end time; the background ticker
// calls this so endings do not depend on traffic.
func (s *auctionService) SettleDue(ctx context.Context) (int, error) {
	due, err := s.auctions.ListDue(ctx, s.now(), 100)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, a := range due {
		if _, err := s.Settle(ctx, a.ID); err == nil {
			settled++
		}
	}
	return settled, nil
}

func (s *auctionService) ListEndingSoon(ctx context.Context, within time.Duration, limit int) ([]model.Auction, error) {
	if within <= 0 {
		within = time.Hour
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.auctions.ListEndingSoon(ctx, within, limit)
}

func (s *auctionService) find(ctx context.Context, auctionID uint64) (*model.Auction, error) {
	a, err := s.auctions.FindByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
