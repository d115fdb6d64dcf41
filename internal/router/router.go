package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/handler"
	"github.com/milpoint/milpoint/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication endpoints.  Sign-in and sign-up are
// fully unauthenticated and sit behind the rate limiter; password change and
// reset need a valid token but deliberately skip the verified requirement so
// a soldier whose sign-up is still pending can rotate their password.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, ratelimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if ratelimit != nil {
		g.Use(ratelimit)
	}
	g.POST("/signIn", a.SignIn)
	g.POST("/signUp", a.SignUp)

	p := e.Group("/v1/auth")
	p.Use(middleware.JWTAuth(jwtSecret))
	p.POST("/updatePassword", a.UpdatePassword)
	p.POST("/resetPassword", a.ResetPassword)
}

// RegisterSoldiers wires the identity-management endpoints.  Every route
// requires a valid token from an approved soldier; the per-operation
// capability checks live in the handlers.
func RegisterSoldiers(e *echo.Echo, h *handler.SoldierHandler, jwtSecret string) {
	g := e.Group("/v1/soldiers")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireVerified())
	g.GET("", h.Fetch)
	g.GET("/search", h.Search)
	g.POST("/verify", h.Review)
	g.PUT("", h.UpdatePermissions)
	g.DELETE("", h.Delete)
}

// RegisterPoints wires the point workflow endpoints.  The read endpoints
// take the Redis response cache when one is configured.
func RegisterPoints(e *echo.Echo, h *handler.PointHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/points")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireVerified())

	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	g.GET("", h.Fetch, cache)
	g.GET("/list", h.List, cache)
	g.GET("/total", h.Total, cache)
	g.POST("", h.Create)
	g.POST("/verify", h.Resolve)
	g.DELETE("", h.Delete)
}
