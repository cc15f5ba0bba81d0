package workflow

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
	api.GET("/test-requests", h.ListTestRequests)
	api.POST("/test-requests", h.CreateTestRequest)
	api.POST("/test-requests/batch", h.CreateTestRequestBatch)
	api.GET("/test-requests/:id", h.GetTestRequest)
	api.POST("/test-requests/:id/status", h.UpdateStatus)
	api.GET("/test-requests/:id/samples", h.ListSamplesForRequest)

	api.GET("/samples", h.ListSamples)
	api.POST("/samples", h.CreateSample)
	api.GET("/samples/:id", h.GetSample)
	api.POST("/samples/:id/status", h.UpdateSampleStatus)
	api.POST("/samples/:id/barcode", h.RegenerateBarcode)
	api.GET("/statistics/test-requests", h.RequestStatistics)
}

// RequestStatistics reports the request count per status.
func (h *Handler) RequestStatistics(c echo.Context) error {
	actor := accounts.ActorFromContext(c.Request().Context())
	counts, err := h.svc.CountRequestsByStatus(c.Request().Context(), actor)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, counts)
}

type createRequestRequest struct {
	PatientID   string `json:"patient_id"`
	TestTypeID  string `json:"test_type_id"`
	RequestedBy string `json:"requested_by"`
}

func (h *Handler) CreateTestRequest(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	tr, err := h.svc.CreateTestRequest(c.Request().Context(), actor, req.PatientID, req.TestTypeID, req.RequestedBy)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, tr)
}

type batchRequest struct {
	PatientID   string      `json:"patient_id"`
	Items       []BatchItem `json:"items"`
	RequestedBy string      `json:"requested_by"`
}

func (h *Handler) CreateTestRequestBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	res, err := h.svc.CreateTestRequestBatch(c.Request().Context(), actor, req.PatientID, req.Items, req.RequestedBy)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetTestRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	tr, err := h.svc.GetTestRequest(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, tr)
}

// ListTestRequests supports an optional ?patient_id= filter.
func (h *Handler) ListTestRequests(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListTestRequests(c.Request().Context(), actor, c.QueryParam("patient_id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status RequestStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	tr, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, tr)
}

type createSampleRequest struct {
	TestRequestID uuid.UUID    `json:"test_request_id"`
	Barcode       string       `json:"barcode"`
	Status        SampleStatus `json:"status"`
	Notes         string       `json:"notes"`
}

func (h *Handler) CreateSample(c echo.Context) error {
	var req createSampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	smp, err := h.svc.CreateSample(c.Request().Context(), actor, req.TestRequestID, req.Barcode, req.Status, req.Notes)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, smp)
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	smp, err := h.svc.GetSample(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, smp)
}

func (h *Handler) ListSamples(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := accounts.ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListSamples(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListSamplesForRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	items, err := h.svc.ListSamplesForRequest(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateSampleStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status SampleStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	smp, err := h.svc.UpdateSampleStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, smp)
}

func (h *Handler) RegenerateBarcode(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := accounts.ActorFromContext(c.Request().Context())
	smp, err := h.svc.RegenerateBarcode(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, smp)
}
