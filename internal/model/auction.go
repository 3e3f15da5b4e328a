package model

import "time"

type AuctionStatus string

const (
	AuctionStatusDraft         AuctionStatus = "draft"
	AuctionStatusActive        AuctionStatus = "active"
	AuctionStatusCancelled     AuctionStatus = "cancelled"
	AuctionStatusSold          AuctionStatus = "sold"
	AuctionStatusReserveNotMet AuctionStatus = "reserve_not_met"
	AuctionStatusExpired       AuctionStatus = "expired"
)

// Terminal reports whether no further bids or transitions are possible.
func (s AuctionStatus) Terminal() bool {
	switch s {
	case AuctionStatusCancelled, AuctionStatusSold, AuctionStatusReserveNotMet, AuctionStatusExpired:
		return true
	}
	return false
}

// Auction holds the bidding state for one listing. All amounts are in
// rappen (CHF cents). Version is the optimistic-lock token: every mutating
// commit goes through `WHERE id = ? AND version = ?`.
type Auction struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ListingID uint64 `gorm:"column:listing_id;uniqueIndex;not null"`
	SellerUID string `gorm:"column:seller_uid;size:128;index;not null"`

	StartingPrice int64  `gorm:"column:starting_price;not null"`
	ReservePrice  *int64 `gorm:"column:reserve_price"`
	MinIncrement  int64  `gorm:"column:min_increment"` // 0 means tiered default applies
	CurrentBid    int64  `gorm:"column:current_bid;not null"`
	WinningBid    *int64 `gorm:"column:winning_bid"`

	EndTime           time.Time `gorm:"column:end_time;not null"`
	AutoExtendMinutes int       `gorm:"column:auto_extend_minutes;not null;default:5"`
	ExtensionCount    int       `gorm:"column:extension_count;not null;default:0"`
	MaxExtensions     int       `gorm:"column:max_extensions;not null;default:3"`

	TotalBids     int `gorm:"column:total_bids;not null;default:0"`
	UniqueBidders int `gorm:"column:unique_bidders;not null;default:0"`

	Status          AuctionStatus `gorm:"column:status;size:32;not null;default:draft"`
	WinnerUID       *string       `gorm:"column:winner_uid;size:128"`
	ReserveMet      bool          `gorm:"column:reserve_met;not null;default:false"`
	EndedAt         *time.Time    `gorm:"column:ended_at"`
	PaymentDueAt    *time.Time    `gorm:"column:payment_due_at"`
	PaymentReceived bool          `gorm:"column:payment_received;not null;default:false"`
	PickupArranged  bool          `gorm:"column:pickup_arranged;not null;default:false"`

	Version   uint64    `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Auction) TableName() string {
	return "auctions"
}
