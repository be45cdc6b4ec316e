package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// ctxCaller extracts the caller identity injected by the Auth and Actor
// middleware. The uid proves the token was validated; the actor snapshot is
// what policy checks run against, so a request that reaches a handler without
// one is rejected before any service call.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	actor, _ := c.Get("actor").(*domain.User)
	if actor == nil {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "caller profile not resolved")
	}

	return ports.Caller{UID: uid, User: actor}, nil
}
