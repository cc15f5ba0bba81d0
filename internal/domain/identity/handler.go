package identity

import (
	"net/http"
	"time"

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
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
	api.GET("/statistics/patients", h.PatientStatistics)
}

type patientRequest struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      Gender `json:"gender"`
	ContactInfo string `json:"contact_info"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := &Patient{Name: req.Name, Age: req.Age, Gender: req.Gender, ContactInfo: req.ContactInfo}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.Register(c.Request().Context(), actor, p); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	p, err := h.svc.GetPatient(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := &Patient{
		ID:          c.Param("id"),
		Name:        req.Name,
		Age:         req.Age,
		Gender:      req.Gender,
		ContactInfo: req.ContactInfo,
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.UpdatePatient(c.Request().Context(), actor, p); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeletePatient(c.Request().Context(), actor, c.Param("id")); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// PatientStatistics reports registrations over ?from=/?to= (RFC 3339),
// defaulting to the last 30 days.
func (h *Handler) PatientStatistics(c echo.Context) error {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		to = t
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	n, err := h.svc.CountRegisteredBetween(c.Request().Context(), actor, from, to)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"from": from, "to": to, "registered": n})
}

// ListPatients supports an optional ?name= substring filter.
func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.SearchPatients(c.Request().Context(), actor, c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
