package billing

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
	api.GET("/invoices", h.ListInvoices)
	api.POST("/invoices", h.CreateInvoice)
	api.GET("/invoices/:id", h.GetInvoice)
	api.DELETE("/invoices/:id", h.DeleteInvoice)
	api.POST("/invoices/:id/payments", h.RecordPayment)
	api.GET("/billing/revenue", h.Revenue)
}

type createInvoiceRequest struct {
	PatientID      string      `json:"patient_id"`
	TestRequestIDs []uuid.UUID `json:"test_request_ids"`
	TotalAmount    float64     `json:"total_amount"`
	PaymentMethod  string      `json:"payment_method"`
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv := &Invoice{
		PatientID:      req.PatientID,
		TestRequestIDs: req.TestRequestIDs,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.CreateInvoice(c.Request().Context(), actor, inv); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	inv, err := h.svc.GetInvoice(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteInvoice(c.Request().Context(), actor, id); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListInvoices supports an optional ?patient_id= filter.
func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListInvoices(c.Request().Context(), actor, c.QueryParam("patient_id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Amount float64 `json:"amount"`
		Method string  `json:"method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	inv, err := h.svc.RecordPayment(c.Request().Context(), actor, id, req.Amount, req.Method)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

// Revenue reads ?from= and ?to= as RFC 3339 dates; defaults to the last
// 30 days.
func (h *Handler) Revenue(c echo.Context) error {
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
	sum, err := h.svc.Revenue(c.Request().Context(), actor, from, to)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, sum)
}
