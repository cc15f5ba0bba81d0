package reporting

import (
	"net/http"

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
	api.GET("/reports", h.ListReports)
	api.POST("/reports", h.CreateReport)
	api.GET("/reports/:id", h.GetReport)
	api.PUT("/reports/:id/content", h.UpdateContent)
	api.POST("/reports/:id/sign", h.SignReport)
	api.DELETE("/reports/:id", h.DeleteReport)
	api.GET("/test-requests/:id/reports", h.ListReportsForRequest)

	api.GET("/report-templates", h.ListTemplates)
	api.POST("/report-templates", h.CreateTemplate)
	api.GET("/report-templates/:id", h.GetTemplate)
	api.PUT("/report-templates/:id", h.UpdateTemplate)
	api.DELETE("/report-templates/:id", h.DeleteTemplate)
	api.POST("/report-templates/:id/apply", h.ApplyTemplate)
}

type createReportRequest struct {
	TestRequestID uuid.UUID `json:"test_request_id"`
	Content       string    `json:"content"`
	Unsigned      bool      `json:"unsigned"`
}

func (h *Handler) CreateReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	rep, err := h.svc.CreateReport(c.Request().Context(), actor, req.TestRequestID, req.Content, req.Unsigned)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	rep, err := h.svc.GetReport(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListReports(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListReports(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListReportsForRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	items, err := h.svc.ListReportsForRequest(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateContent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	rep, err := h.svc.UpdateContent(c.Request().Context(), actor, id, req.Content)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) SignReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	rep, err := h.svc.SignReport(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) DeleteReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteReport(c.Request().Context(), actor, id); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type templateRequest struct {
	TestTypeID *string `json:"test_type_id"`
	Name       string  `json:"name"`
	Body       string  `json:"body"`
}

func (h *Handler) ListTemplates(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListTemplates(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	var req templateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := &ReportTemplate{TestTypeID: req.TestTypeID, Name: req.Name, Body: req.Body}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.CreateTemplate(c.Request().Context(), actor, t); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	t, err := h.svc.GetTemplate(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req templateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := &ReportTemplate{ID: id, TestTypeID: req.TestTypeID, Name: req.Name, Body: req.Body}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.UpdateTemplate(c.Request().Context(), actor, t); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteTemplate(c.Request().Context(), actor, id); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ApplyTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		TestRequestID uuid.UUID `json:"test_request_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	rep, err := h.svc.ApplyTemplate(c.Request().Context(), actor, id, req.TestRequestID)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, rep)
}
