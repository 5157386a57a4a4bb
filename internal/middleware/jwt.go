// Package middleware contains reusable HTTP middleware: JWT authentication,
// redis-backed response caching and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject claim into the request context. The provided
// secret must match the one used when issuing tokens. This middleware should
// wrap protected routes so that handlers can access the authenticated user
// via `c.Get("user_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := parseBearer(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", claims["sub"])
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth but lets unauthenticated requests
// through: when a valid bearer token is presented the user id is placed in
// the context, otherwise the request proceeds anonymously. Used on routes
// that attach reservations to a user only when one is logged in.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := parseBearer(c, secret); ok {
				c.Set("user_id", claims["sub"])
			}
			return next(c)
		}
	}
}

// parseBearer extracts and validates the HS256 bearer token from the
// Authorization header. It returns the claims and whether they are usable.
func parseBearer(c echo.Context, secret string) (jwt.MapClaims, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}
