package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/repository"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for the gorm repositories with real
// optimistic-version semantics, so concurrency behavior is testable
// without a database.
type fakeStore struct {
	mu        sync.Mutex
	auctions  map[uint64]*model.Auction
	bids      map[uint64]*model.Bid
	listings  map[uint64]*model.Listing
	nextBidID uint64

	// conflictsLeft forces that many commits to fail with a version
	// conflict, bumping the stored version as a concurrent writer would.
	conflictsLeft int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		auctions: make(map[uint64]*model.Auction),
		bids:     make(map[uint64]*model.Bid),
		listings: make(map[uint64]*model.Listing),
	}
}

func (f *fakeStore) putAuction(a *model.Auction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.auctions[a.ID] = &cp
}

func (f *fakeStore) putBid(b *model.Bid) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == 0 {
		f.nextBidID++
		b.ID = f.nextBidID
	} else if b.ID > f.nextBidID {
		f.nextBidID = b.ID
	}
	cp := *b
	f.bids[b.ID] = &cp
}

func (f *fakeStore) bidByID(id uint64) *model.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bids[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

// --- repository.AuctionRepository ---

func (f *fakeStore) Create(ctx context.Context, a *model.Auction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		a.ID = uint64(len(f.auctions) + 1)
	}
	cp := *a
	f.auctions[a.ID] = &cp
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uint64) (*model.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) FindByListing(ctx context.Context, listingID uint64) (*model.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.auctions {
		if a.ListingID == listingID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uint64, version uint64, status model.AuctionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[id]
	if !ok || a.Version != version {
		return repository.ErrVersionConflict
	}
	a.Status = status
	a.Version++
	return nil
}

func (f *fakeStore) CommitBidRound(ctx context.Context, round *repository.BidRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.auctions[round.Auction.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		stored.Version++ // a concurrent writer got there first
		return repository.ErrVersionConflict
	}
	if stored.Version != round.SnapshotVersion {
		return repository.ErrVersionConflict
	}
	cp := *round.Auction
	cp.Version = round.SnapshotVersion + 1
	f.auctions[cp.ID] = &cp
	for _, id := range round.OutbidIDs {
		f.bids[id].Status = model.BidStatusOutbid
	}
	for _, id := range round.HistoryIDs {
		f.bids[id].Status = model.BidStatusActive
	}
	for _, b := range round.NewBids {
		f.nextBidID++
		b.ID = f.nextBidID
		bc := *b
		f.bids[b.ID] = &bc
	}
	return nil
}

func (f *fakeStore) CommitSettlement(ctx context.Context, s *repository.Settlement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.auctions[s.Auction.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		stored.Version++
		return repository.ErrVersionConflict
	}
	if stored.Version != s.SnapshotVersion {
		return repository.ErrVersionConflict
	}
	cp := *s.Auction
	cp.Version = s.SnapshotVersion + 1
	f.auctions[cp.ID] = &cp
	if s.WonBidID != 0 {
		f.bids[s.WonBidID].Status = model.BidStatusWon
	}
	for _, id := range s.LostBidIDs {
		f.bids[id].Status = model.BidStatusLost
	}
	return nil
}

func (f *fakeStore) ListEndingSoon(ctx context.Context, within time.Duration, limit int) ([]model.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var out []model.Auction
	for _, a := range f.auctions {
		if a.Status == model.AuctionStatusActive && a.EndTime.After(now) && !a.EndTime.After(now.Add(within)) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Auction
	for _, a := range f.auctions {
		if a.Status == model.AuctionStatusActive && !a.EndTime.After(now) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- repository.BidRepository ---

func (f *fakeStore) ListByAuction(ctx context.Context, auctionID uint64) ([]model.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Bid
	for _, b := range f.bids {
		if b.AuctionID == auctionID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) FindWinning(ctx context.Context, auctionID uint64) (*model.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bids {
		if b.AuctionID == auctionID && b.Status == model.BidStatusWinning {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) HasBidFrom(ctx context.Context, auctionID uint64, bidderUID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bids {
		if b.AuctionID == auctionID && b.BidderUID == bidderUID {
			return true, nil
		}
	}
	return false, nil
}

// --- repository.ListingRepository ---

func (f *fakeStore) CreateListing(ctx context.Context, l *model.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == 0 {
		l.ID = uint64(len(f.listings) + 1)
	}
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeStore) findListing(ctx context.Context, id uint64) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

// listingRepo adapts fakeStore to repository.ListingRepository, whose
// method names collide with the auction repo's.
type listingRepo struct{ f *fakeStore }

func (r listingRepo) Create(ctx context.Context, l *model.Listing) error {
	return r.f.CreateListing(ctx, l)
}

func (r listingRepo) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	return r.f.findListing(ctx, id)
}

func (r listingRepo) List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []model.Listing
	for _, l := range r.f.listings {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

// captureBroadcaster records published events for assertions.
type captureBroadcaster struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureBroadcaster) Publish(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureBroadcaster) byType(typ event.Type) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Event
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
