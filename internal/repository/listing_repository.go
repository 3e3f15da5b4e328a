package repository

import (
	"context"
	"errors"

	"github.com/motoauto/auction-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		listings []model.Listing
		total    int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Listing{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}
