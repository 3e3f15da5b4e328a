package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/motoauto/auction-backend/internal/ws"
)

// StreamHandler exposes the live auction feed over WebSocket.
type StreamHandler struct {
	manager *ws.Manager
}

func NewStreamHandler(manager *ws.Manager) *StreamHandler {
	return &StreamHandler{manager: manager}
}

func (h *StreamHandler) Watch(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	return h.manager.Serve(c.Response(), c.Request(), id)
}

func (h *StreamHandler) Watchers(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id": id,
		"watchers":   h.manager.WatcherCount(id),
	})
}
