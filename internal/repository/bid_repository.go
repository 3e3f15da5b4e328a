package repository

import (
	"context"
	"errors"

	"github.com/motoauto/auction-backend/internal/model"
	"gorm.io/gorm"
)

type BidRepository interface {
	// ListByAuction returns bids in ranking order: amount descending,
	// ties broken by earliest commit (lower id).
	ListByAuction(ctx context.Context, auctionID uint64) ([]model.Bid, error)
	FindWinning(ctx context.Context, auctionID uint64) (*model.Bid, error)
	HasBidFrom(ctx context.Context, auctionID uint64, bidderUID string) (bool, error)
}

type bidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) ListByAuction(ctx context.Context, auctionID uint64) ([]model.Bid, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var bids []model.Bid
	if err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount desc, id asc").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *bidRepository) FindWinning(ctx context.Context, auctionID uint64) (*model.Bid, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var bid model.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND status = ?", auctionID, model.BidStatusWinning).
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *bidRepository) HasBidFrom(ctx context.Context, auctionID uint64, bidderUID string) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("auction_id = ? AND bidder_uid = ?", auctionID, bidderUID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
