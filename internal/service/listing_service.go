package service

import (
	"context"
	"errors"

	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/repository"
	"gorm.io/gorm"
)

// ListingService covers the minimal listing plumbing the auction flow
// needs; full listing content management lives elsewhere.
type ListingService interface {
	Create(ctx context.Context, listing *model.Listing) error
	Get(ctx context.Context, id uint64) (*model.Listing, error)
	List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error)
}

type listingService struct {
	repo repository.ListingRepository
}

func NewListingService(repo repository.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

func (s *listingService) Create(ctx context.Context, listing *model.Listing) error {
	if listing.SellerUID == "" || listing.Title == "" {
		return ErrInvalidState
	}
	if listing.Currency == "" {
		listing.Currency = "CHF"
	}
	return s.repo.Create(ctx, listing)
}

func (s *listingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *listingService) List(ctx context.Context, limit, offset int) ([]model.Listing, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
