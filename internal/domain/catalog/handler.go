package catalog

import (
	"net/http"

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
	api.GET("/test-types", h.ListTestTypes)
	api.POST("/test-types", h.AddTestType)
	api.GET("/test-types/lookup", h.Lookup)
	api.GET("/test-types/:id", h.GetTestType)
	api.PUT("/test-types/:id", h.UpdateTestType)
	api.DELETE("/test-types/:id", h.DeleteTestType)
}

type testTypeRequest struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Legacy      bool     `json:"legacy"`
}

func (h *Handler) AddTestType(c echo.Context) error {
	var req testTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := &TestType{Name: req.Name, Category: req.Category, Price: req.Price, Description: req.Description}
	actor := accounts.ActorFromContext(c.Request().Context())
	var err error
	if req.Legacy {
		err = h.svc.AddLegacyTestType(c.Request().Context(), actor, t)
	} else {
		err = h.svc.AddTestType(c.Request().Context(), actor, t)
	}
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

// Lookup resolves ?id= under both ID schemes.
func (h *Handler) Lookup(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	t, err := h.svc.Lookup(c.Request().Context(), actor, c.QueryParam("id"))
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetTestType(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	t, err := h.svc.GetTestType(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTestType(c echo.Context) error {
	var req testTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := &TestType{
		ID:          c.Param("id"),
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.UpdateTestType(c.Request().Context(), actor, t); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTestType(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteTestType(c.Request().Context(), actor, c.Param("id")); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTestTypes(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListTestTypes(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
