package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/utils"
)

// ClaimsKey is the echo context key under which JWTAuth stores the parsed
// claim bundle.
const ClaimsKey = "claims"

// JWTAuth returns middleware that validates a Bearer access token and
// injects the claim bundle into the request context.  Tokens are HS512 only;
// anything else (bad signature, expiry, foreign algorithm) is a 401.  The
// authentication endpoints are registered outside this middleware, which is
// what gives them their self-service exemption.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			cl, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ClaimsKey, cl)
			return next(c)
		}
	}
}

// CallerClaims extracts the claim bundle stored by JWTAuth.  The zero Claims
// value is returned when no token was presented (unauthenticated routes).
func CallerClaims(c echo.Context) utils.Claims {
	if v, ok := c.Get(ClaimsKey).(utils.Claims); ok {
		return v
	}
	return utils.Claims{}
}

// RequireVerified rejects callers whose sign-up review is not approved.  A
// token issued before approval carries verified=null and stays that way
// until the holder signs in again, so a freshly approved soldier must
// re-authenticate before reaching protected routes.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cl := CallerClaims(c)
			if cl.Verified == nil || !*cl.Verified {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account not verified"})
			}
			return next(c)
		}
	}
}
