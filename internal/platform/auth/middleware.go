package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lims/lims/internal/domain/accounts"
)

// AccountSource resolves an account ID from a token subject to the full
// account record, so permission checks always see current state (a user
// disabled after login is cut off on the next request).
type AccountSource interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*accounts.User, error)
}

// Middleware validates the bearer token and places the resolved actor on
// the request context for handlers to thread into the core operations.
func Middleware(cfg TokenConfig, source AccountSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := Parse(cfg, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			accountID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			actor, err := source.GetAccount(c.Request().Context(), accountID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
			}

			ctx := accounts.WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
