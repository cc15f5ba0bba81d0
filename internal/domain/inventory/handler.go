package inventory

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
	"github.com/lims/lims/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/inventory", h.ListItems)
	api.POST("/inventory", h.AddItem)
	api.GET("/inventory/low-stock", h.ListLowStock)
	api.GET("/inventory/:id", h.GetItem)
	api.PUT("/inventory/:id", h.UpdateItem)
	api.DELETE("/inventory/:id", h.DeleteItem)
	api.POST("/inventory/:id/adjust", h.AdjustQuantity)
}

type itemRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	MinQuantity int        `json:"min_quantity"`
	Supplier    string     `json:"supplier"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

func (h *Handler) AddItem(c echo.Context) error {
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	i := &Item{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Supplier:    req.Supplier,
		ExpiryDate:  req.ExpiryDate,
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.AddItem(c.Request().Context(), actor, i); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *Handler) GetItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	i, err := h.svc.GetItem(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	i := &Item{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Supplier:    req.Supplier,
		ExpiryDate:  req.ExpiryDate,
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.UpdateItem(c.Request().Context(), actor, i); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteItem(c.Request().Context(), actor, id); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AdjustQuantity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	i, err := h.svc.AdjustQuantity(c.Request().Context(), actor, id, req.Delta)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListItems(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListLowStock(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	items, err := h.svc.ListLowStock(c.Request().Context(), actor)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
