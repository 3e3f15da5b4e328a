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

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type CreateListingRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Brand       string `json:"brand" validate:"required,max=100"`
	Model       string `json:"model" validate:"required,max=100"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
	MileageKM   int    `json:"mileage_km" validate:"gte=0"`
}

type ListingResponse struct {
	ID          uint64 `json:"id"`
	SellerUID   string `json:"seller_uid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	MileageKM   int    `json:"mileage_km"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at"`
}

type ListingListResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int64             `json:"total"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	listing := &model.Listing{
		SellerUID:   appmw.UID(c),
		Title:       req.Title,
		Description: req.Description,
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		MileageKM:   req.MileageKM,
	}
	if err := h.svc.Create(c.Request().Context(), listing); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toListingResponse(listing))
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	listing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	listings, total, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	resp := ListingListResponse{
		Listings: make([]ListingResponse, 0, len(listings)),
		Total:    total,
	}
	for i := range listings {
		resp.Listings = append(resp.Listings, toListingResponse(&listings[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		SellerUID:   l.SellerUID,
		Title:       l.Title,
		Description: l.Description,
		Brand:       l.Brand,
		Model:       l.Model,
		Year:        l.Year,
		MileageKM:   l.MileageKM,
		Currency:    l.Currency,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}
