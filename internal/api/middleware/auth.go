package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Revoker is the session denylist consulted on every authenticated request.
// A revoked uid invalidates otherwise valid tokens, so bans and account
// deletions take effect before the token expires.
type Revoker interface {
	IsRevoked(ctx context.Context, uid string) (bool, error)
}

// Auth validates the JWT, rejects revoked sessions and injects the caller
// identity into context under "uid" and "username".
func Auth(jwtSecret string, revoker Revoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			uid, _ := claims["sub"].(string)
			if uid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			revoked, err := revoker.IsRevoked(c.Request().Context(), uid)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session check unavailable")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
			}

			c.Set("uid", uid)
			c.Set("username", claims["username"])

			return next(c)
		}
	}
}
