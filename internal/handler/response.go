package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motoauto/auction-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// serviceError maps the service sentinels onto HTTP responses so every
// handler reports the same codes for the same failures.
func serviceError(c echo.Context, err error) error {
	switch err {
	case service.ErrNotFound:
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "auction not found"))
	case service.ErrForbidden:
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case service.ErrIsOwner:
		return c.JSON(http.StatusForbidden, NewErrorResponse("is_owner", "sellers cannot bid on their own auction"))
	case service.ErrAuctionNotActive:
		return c.JSON(http.StatusConflict, NewErrorResponse("auction_not_active", "auction is not open for bidding"))
	case service.ErrAuctionNotEnded:
		return c.JSON(http.StatusConflict, NewErrorResponse("auction_not_ended", "auction has not ended yet"))
	case service.ErrBelowMinimumIncrement:
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("below_minimum_increment", "bid is below the next minimum bid"))
	case service.ErrAutoBidCeilingInvalid:
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("auto_bid_ceiling_invalid", "auto-bid ceiling must cover the bid amount"))
	case service.ErrStaleSnapshot:
		return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "auction changed concurrently, retry the bid"))
	case service.ErrInvalidState:
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("invalid_state", "operation not valid in the auction's current state"))
	case service.ErrNoSaleAmount:
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("no_sale_amount", "no bids to price a commission against"))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
	}
}
