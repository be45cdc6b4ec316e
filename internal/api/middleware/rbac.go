package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
)

// ActorResolver yields the live profile snapshot for a uid. Resolution goes
// through the session cache, so moderation changes apply on the next request
// rather than at token refresh.
type ActorResolver interface {
	Resolve(ctx context.Context, uid string) (*domain.User, error)
}

// Actor resolves the authenticated caller's profile and stores it under
// "actor". Must run after Auth.
func Actor(resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := c.Get("uid").(string)
			if uid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			actor, err := resolver.Resolve(c.Request().Context(), uid)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
				}
				return err
			}

			c.Set("actor", actor)
			return next(c)
		}
	}
}

// Require enforces capability-based access control on the resolved actor.
// Must run after Actor.
func Require(capability domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := c.Get("actor").(*domain.User)
			if !domain.HasPermission(actor, capability) {
				metrics.PolicyDenialsTotal.WithLabelValues(string(capability)).Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
