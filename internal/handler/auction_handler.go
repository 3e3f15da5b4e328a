package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	appmw "github.com/motoauto/auction-backend/internal/middleware"
	"github.com/motoauto/auction-backend/internal/model"
	"github.com/motoauto/auction-backend/internal/service"
)

type AuctionHandler struct {
	svc service.AuctionService
}

func NewAuctionHandler(svc service.AuctionService) *AuctionHandler {
	return &AuctionHandler{svc: svc}
}

type CreateAuctionRequest struct {
	ListingID         uint64 `json:"listing_id" validate:"required"`
	StartingPrice     int64  `json:"starting_price" validate:"required,gt=0"`
	ReservePrice      *int64 `json:"reserve_price" validate:"omitempty,gt=0"`
	MinIncrement      int64  `json:"min_increment" validate:"gte=0"`
	EndTime           string `json:"end_time" validate:"required"`
	AutoExtendMinutes int    `json:"auto_extend_minutes" validate:"gte=0,lte=60"`
	MaxExtensions     int    `json:"max_extensions" validate:"gte=0,lte=20"`
}

type AuctionSummary struct {
	ID             uint64 `json:"id"`
	ListingID      uint64 `json:"listing_id"`
	Status         string `json:"status"`
	CurrentBid     int64  `json:"current_bid"`
	TotalBids      int    `json:"total_bids"`
	EndTime        string `json:"end_time"`
	ExtensionCount int    `json:"extension_count"`
}

func (h *AuctionHandler) Create(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "end_time must be RFC3339"))
	}
	a, err := h.svc.Create(c.Request().Context(), service.CreateAuctionInput{
		ListingID:         req.ListingID,
		SellerUID:         appmw.UID(c),
		StartingPrice:     req.StartingPrice,
		ReservePrice:      req.ReservePrice,
		MinIncrement:      req.MinIncrement,
		EndTime:           endTime,
		AutoExtendMinutes: req.AutoExtendMinutes,
		MaxExtensions:     req.MaxExtensions,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuctionSummary(a))
}

func (h *AuctionHandler) Publish(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	view, err := h.svc.Publish(c.Request().Context(), id, appmw.UID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *AuctionHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	view, err := h.svc.Cancel(c.Request().Context(), id, appmw.UID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *AuctionHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	view, err := h.svc.GetView(c.Request().Context(), id, appmw.UID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *AuctionHandler) ListBids(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	bids, err := h.svc.ListBids(c.Request().Context(), id, appmw.UID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"bids": bids})
}

func (h *AuctionHandler) CommissionEstimate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	breakdown, err := h.svc.CommissionEstimate(c.Request().Context(), id, appmw.UID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

func (h *AuctionHandler) Settle(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	a, err := h.svc.Settle(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionSummary(a))
}

func (h *AuctionHandler) EndingSoon(c echo.Context) error {
	minutes, _ := strconv.Atoi(c.QueryParam("within_minutes"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	auctions, err := h.svc.ListEndingSoon(c.Request().Context(), time.Duration(minutes)*time.Minute, limit)
	if err != nil {
		return serviceError(c, err)
	}
	resp := make([]AuctionSummary, 0, len(auctions))
	for i := range auctions {
		resp = append(resp, toAuctionSummary(&auctions[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"auctions": resp})
}

func toAuctionSummary(a *model.Auction) AuctionSummary {
	return AuctionSummary{
		ID:             a.ID,
		ListingID:      a.ListingID,
		Status:         string(a.Status),
		CurrentBid:     a.CurrentBid,
		TotalBids:      a.TotalBids,
		EndTime:        a.EndTime.Format(time.RFC3339),
		ExtensionCount: a.ExtensionCount,
	}
}
