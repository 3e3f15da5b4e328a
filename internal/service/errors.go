package service

import "errors"

// Rejection reasons surfaced to callers. Validation and state errors are
// final; ErrStaleSnapshot is returned only after the bounded retry budget
// for optimistic-lock conflicts is exhausted.
var (
	ErrNotFound              = errors.New("not_found")
	ErrAuctionNotActive      = errors.New("auction_not_active")
	ErrAuctionNotEnded       = errors.New("auction_not_ended")
	ErrIsOwner               = errors.New("is_owner")
	ErrBelowMinimumIncrement = errors.New("below_minimum_increment")
	ErrAutoBidCeilingInvalid = errors.New("auto_bid_ceiling_invalid")
	ErrStaleSnapshot         = errors.New("stale_snapshot")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidState          = errors.New("invalid_state")
	ErrNoSaleAmount          = errors.New("no_sale_amount")
)
