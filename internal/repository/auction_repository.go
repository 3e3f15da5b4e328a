package repository

import (
	"context"
	"errors"
	"time"

	"github.com/motoauto/auction-backend/internal/model"
	"gorm.io/gorm"
)

// ErrVersionConflict means the auction row changed between snapshot read
// and commit. Callers retry against a fresh read.
var ErrVersionConflict = errors.New("stale_snapshot")

// BidRound is the atomic effect of one accepted bid: the mutated auction
// snapshot, the bid rows to append (the triggering bid plus any automatic
// counter-raises, in commit order) and the status demotions it causes.
type BidRound struct {
	Auction         *model.Auction
	SnapshotVersion uint64
	NewBids         []*model.Bid
	OutbidIDs       []uint64 // previously winning bids superseded this round
	HistoryIDs      []uint64 // auto-bid rows superseded by their own raise
}

// Settlement is the terminal transition of an auction: final status,
// winner assignment and win/lose marks for every bid.
type Settlement struct {
	Auction         *model.Auction
	SnapshotVersion uint64
	WonBidID        uint64 // zero when the auction ends without bids
	LostBidIDs      []uint64
}

type AuctionRepository interface {
	Create(ctx context.Context, auction *model.Auction) error
	FindByID(ctx context.Context, id uint64) (*model.Auction, error)
	FindByListing(ctx context.Context, listingID uint64) (*model.Auction, error)
	UpdateStatus(ctx context.Context, id uint64, version uint64, status model.AuctionStatus) error
	CommitBidRound(ctx context.Context, round *BidRound) error
	CommitSettlement(ctx context.Context, s *Settlement) error
	ListEndingSoon(ctx context.Context, within time.Duration, limit int) ([]model.Auction, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Auction, error)
}

type auctionRepository struct {
	db *gorm.DB
}

func NewAuctionRepository(db *gorm.DB) AuctionRepository {
	return &auctionRepository{db: db}
}

func (r *auctionRepository) Create(ctx context.Context, auction *model.Auction) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(auction).Error
}

func (r *auctionRepository) FindByID(ctx context.Context, id uint64) (*model.Auction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var auction model.Auction
	if err := r.db.WithContext(ctx).First(&auction, id).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *auctionRepository) FindByListing(ctx context.Context, listingID uint64) (*model.Auction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var auction model.Auction
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&auction).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

// UpdateStatus performs a guarded status flip (publish, cancel).
func (r *auctionRepository) UpdateStatus(ctx context.Context, id uint64, version uint64, status model.AuctionStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Model(&model.Auction{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"status":  status,
			"version": version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// CommitBidRound applies the whole round in one transaction keyed on the
// snapshot version. Either every row lands or none does; a concurrent
// commit on the same auction surfaces as ErrVersionConflict.
func (r *auctionRepository) CommitBidRound(ctx context.Context, round *BidRound) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	a := round.Auction
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("id = ? AND version = ?", a.ID, round.SnapshotVersion).
			Updates(map[string]interface{}{
				"current_bid":     a.CurrentBid,
				"total_bids":      a.TotalBids,
				"unique_bidders":  a.UniqueBidders,
				"reserve_met":     a.ReserveMet,
				"end_time":        a.EndTime,
				"extension_count": a.ExtensionCount,
				"version":         round.SnapshotVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		if len(round.OutbidIDs) > 0 {
			if err := tx.Model(&model.Bid{}).
				Where("id IN ?", round.OutbidIDs).
				Update("status", model.BidStatusOutbid).Error; err != nil {
				return err
			}
		}
		if len(round.HistoryIDs) > 0 {
			if err := tx.Model(&model.Bid{}).
				Where("id IN ?", round.HistoryIDs).
				Update("status", model.BidStatusActive).Error; err != nil {
				return err
			}
		}
		for _, b := range round.NewBids {
			if err := tx.Create(b).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CommitSettlement is the idempotency anchor for auction endings: the
// version guard ensures only one concurrent settler wins, and the service
// treats a conflict against an already-ended auction as success.
func (r *auctionRepository) CommitSettlement(ctx context.Context, s *Settlement) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	a := s.Auction
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("id = ? AND version = ?", a.ID, s.SnapshotVersion).
			Updates(map[string]interface{}{
				"status":         a.Status,
				"winner_uid":     a.WinnerUID,
				"winning_bid":    a.WinningBid,
				"reserve_met":    a.ReserveMet,
				"ended_at":       a.EndedAt,
				"payment_due_at": a.PaymentDueAt,
				"version":        s.SnapshotVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		if s.WonBidID != 0 {
			if err := tx.Model(&model.Bid{}).
				Where("id = ?", s.WonBidID).
				Update("status", model.BidStatusWon).Error; err != nil {
				return err
			}
		}
		if len(s.LostBidIDs) > 0 {
			if err := tx.Model(&model.Bid{}).
				Where("id IN ?", s.LostBidIDs).
				Update("status", model.BidStatusLost).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *auctionRepository) ListEndingSoon(ctx context.Context, within time.Duration, limit int) ([]model.Auction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var auctions []model.Auction
	now := time.Now()
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time > ? AND end_time <= ?", model.AuctionStatusActive, now, now.Add(within)).
		Order("end_time asc").
		Limit(limit).
		Find(&auctions).Error; err != nil {
		return nil, err
	}
	return auctions, nil
}

// ListDue returns published auctions whose end time has passed but whose
// stored status has not been settled yet.
func (r *auctionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var auctions []model.Auction
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", model.AuctionStatusActive, now).
		Order("end_time asc").
		Limit(limit).
		Find(&auctions).Error; err != nil {
		return nil, err
	}
	return auctions, nil
}
