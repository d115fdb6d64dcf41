package middleware

// identity.go defines helpers shared across middleware files.  callerSN
// pulls the subject service number from the claim bundle stored by JWTAuth;
// rate limiting and caching use it to build per-user keys.  Unauthenticated
// requests (the auth endpoints) key on "guest".

import (
	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/utils"
)

// callerSN returns the authenticated caller's service number or "guest".
func callerSN(c echo.Context) string {
	if cl, ok := c.Get(ClaimsKey).(utils.Claims); ok && cl.Sub != "" {
		return cl.Sub
	}
	return "guest"
}
