package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/motoauto/auction-backend/internal/auction"
	appmw "github.com/motoauto/auction-backend/internal/middleware"
	"github.com/motoauto/auction-backend/internal/service"
)

type BidHandler struct {
	svc service.BidService
}

func NewBidHandler(svc service.BidService) *BidHandler {
	return &BidHandler{svc: svc}
}

type PlaceBidRequest struct {
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	IsAutoBid  bool   `json:"is_auto_bid"`
	MaxAutoBid *int64 `json:"max_auto_bid" validate:"omitempty,gt=0"`
}

type PlaceBidResponse struct {
	BidID          uint64 `json:"bid_id"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
	CurrentBid     int64  `json:"current_bid"`
	NextMinimumBid int64  `json:"next_minimum_bid"`
	TotalBids      int    `json:"total_bids"`
	Extended       bool   `json:"extended"`
	EndTime        string `json:"end_time"`
	ExtensionCount int    `json:"extension_count"`
}

func (h *BidHandler) Place(c echo.Context) error {
	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	res, err := h.svc.PlaceBid(c.Request().Context(), service.PlaceBidInput{
		AuctionID:  auctionID,
		BidderUID:  appmw.UID(c),
		Amount:     req.Amount,
		IsAutoBid:  req.IsAutoBid,
		MaxAutoBid: req.MaxAutoBid,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toPlaceBidResponse(res))
}

func toPlaceBidResponse(res *service.PlaceBidResult) PlaceBidResponse {
	return PlaceBidResponse{
		BidID:          res.Bid.ID,
		Amount:         res.Bid.Amount,
		Status:         string(res.Bid.Status),
		CurrentBid:     res.Auction.CurrentBid,
		NextMinimumBid: auction.NextMinimumBid(res.Auction),
		TotalBids:      res.Auction.TotalBids,
		Extended:       res.Extended,
		EndTime:        res.Auction.EndTime.Format(time.RFC3339),
		ExtensionCount: res.Auction.ExtensionCount,
	}
}
