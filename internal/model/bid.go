package model

import "time"

type BidStatus string

const (
	// BidStatusActive marks a superseded history step of an automatic bid.
	BidStatusActive  BidStatus = "active"
	BidStatusWinning BidStatus = "winning"
	BidStatusOutbid  BidStatus = "outbid"
	BidStatusWon     BidStatus = "won"
	BidStatusLost    BidStatus = "lost"
)

// Bid is an immutable record of one offer; only Status moves, and only
// forward (active/winning -> outbid -> won/lost). Amount is in rappen.
type Bid struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	AuctionID  uint64    `gorm:"column:auction_id;index;not null"`
	BidderUID  string    `gorm:"column:bidder_uid;size:128;index;not null"`
	Amount     int64     `gorm:"column:amount;not null"`
	IsAutoBid  bool      `gorm:"column:is_auto_bid;not null;default:false"`
	MaxAutoBid *int64    `gorm:"column:max_auto_bid"`
	Status     BidStatus `gorm:"column:status;size:16;not null"`
	PlacedAt   time.Time `gorm:"column:placed_at;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Bid) TableName() string {
	return "bids"
}
