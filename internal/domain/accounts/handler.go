package accounts

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lims/lims/pkg/laberr"
	"github.com/lims/lims/pkg/pagination"
)

// TokenIssuer mints a session token for an authenticated account. Token
// mechanics live in the transport layer, not in this package.
type TokenIssuer func(u *User) (string, error)

type Handler struct {
	svc   *Service
	issue TokenIssuer
}

func NewHandler(svc *Service, issue TokenIssuer) *Handler {
	return &Handler{svc: svc, issue: issue}
}

// RegisterRoutes registers the authenticated user-management routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/users", h.ListUsers)
	api.POST("/users", h.CreateUser)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.POST("/users/:id/active", h.SetActive)
	api.POST("/users/:id/password", h.ChangePassword)
	api.GET("/permissions", h.ListPermissions)
}

// RegisterAuthRoutes registers the unauthenticated login route.
func (h *Handler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if laberr.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	token, err := h.issue(u)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

type createUserRequest struct {
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    *bool        `json:"is_active"`
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := &User{
		Username:    req.Username,
		Email:       req.Email,
		Role:        req.Role,
		Permissions: req.Permissions,
		IsActive:    true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	actor := ActorFromContext(c.Request().Context())
	if err := h.svc.CreateUser(c.Request().Context(), actor, u, req.Password); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := ActorFromContext(c.Request().Context())
	u, err := h.svc.GetUser(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	actor := ActorFromContext(c.Request().Context())
	items, total, err := h.svc.ListUsers(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateUserRequest struct {
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := &User{
		ID:          id,
		Email:       req.Email,
		Role:        req.Role,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
	}
	actor := ActorFromContext(c.Request().Context())
	if err := h.svc.UpdateUser(c.Request().Context(), actor, u); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := ActorFromContext(c.Request().Context())
	if err := h.svc.DeleteUser(c.Request().Context(), actor, id); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := ActorFromContext(c.Request().Context())
	if err := h.svc.SetActive(c.Request().Context(), actor, id, req.Active); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := ActorFromContext(c.Request().Context())
	if err := h.svc.ChangePassword(c.Request().Context(), actor, id, req.Password); err != nil {
		return echo.NewHTTPError(laberr.Status(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPermissions returns the permission vocabulary grouped by display
// category. The grouping is for UI rendering only.
func (h *Handler) ListPermissions(c echo.Context) error {
	return c.JSON(http.StatusOK, PermissionCategories)
}
