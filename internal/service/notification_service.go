package service

import (
	"context"
	"fmt"
	"time"

	"github.com/motoauto/auction-backend/internal/event"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/repository"
)

type NotificationService interface {
	event.Broadcaster
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	auctions repository.AuctionRepository
}

func NewNotificationService(repo repository.NotificationRepository, auctions repository.AuctionRepository) NotificationService {
	return &notificationService{repo: repo, auctions: auctions}
}

// Publish persists user-facing notifications for the events that concern a
// specific person. Best-effort: a failed insert never fails the bid that
// caused it.
func (s *notificationService) Publish(ev event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	switch ev.Type {
	case event.TypeOutbid:
		s.create(ctx, ev.BidderUID, ev, "outbid",
			"You have been outbid",
			fmt.Sprintf("The current bid is now CHF %.2f. Raise your bid to stay in the running.", chf(ev.CurrentBid)))
	case event.TypeAuctionEnded:
		if ev.BidderUID != "" {
			s.create(ctx, ev.BidderUID, ev, "auction_won",
				"You won the auction",
				fmt.Sprintf("Winning bid: CHF %.2f. Payment details are available on the auction page.", chf(ev.Amount)))
		}
		if a, err := s.auctions.FindByID(ctx, ev.AuctionID); err == nil {
			s.create(ctx, a.SellerUID, ev, "auction_ended",
				"Your auction has ended",
				fmt.Sprintf("Final bid: CHF %.2f.", chf(ev.CurrentBid)))
		}
	}
}

func (s *notificationService) create(ctx context.Context, userUID string, ev event.Event, typ, title, body string) {
	if userUID == "" {
		return
	}
	auctionID := ev.AuctionID
	_ = s.repo.Create(ctx, &model.Notification{
		UserUID:   userUID,
		Type:      typ,
		Title:     title,
		Body:      body,
		AuctionID: &auctionID,
	})
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func chf(rappen int64) float64 {
	return float64(rappen) / 100
}
