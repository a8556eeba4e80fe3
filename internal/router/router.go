package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/handler"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/middleware"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// Deps carries the handlers and shared middleware wired by main.
type Deps struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc // applied to every /v1 route
	Cache     echo.MiddlewareFunc // applied to public GETs only
	Ready     echo.HandlerFunc

	Auth        *handler.AuthHandler
	Bookings    *handler.BookingHandler
	Restaurants *handler.RestaurantHandler
	Account     *handler.AccountHandler
	Admin       *handler.AdminHandler
	WS          *handler.WSHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	if d.RateLimit == nil {
		d.RateLimit = noop
	}
	if d.Cache == nil {
		d.Cache = noop
	}

	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}

	v1 := e.Group("/v1", d.RateLimit)
	registerAuth(v1, d)
	registerPublic(v1, d)
	registerClient(v1, d)
	registerOwner(v1, d)
	registerAdmin(v1, d)
	registerAccount(v1, d)

	// Browsers cannot set headers on websocket upgrades.
	e.GET("/v1/ws", d.WS.Connect, middleware.QueryTokenAuth(d.JWTSecret))
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

// guard returns the JWT check plus a role check for roles.
func guard(secret string, roles ...string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(secret), middleware.RequireRole(roles...)}
}

// registerAuth mounts token issuance under /v1/auth.  Only /v1/me needs an
// access token; logout accepts either a bearer or a refresh token.
func registerAuth(v1 *echo.Group, d Deps) {
	g := v1.Group("/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/refresh-access", d.Auth.RefreshAccess)
	g.POST("/logout", d.Auth.Logout)

	v1.GET("/me", d.Auth.Me, guard(d.JWTSecret, model.RoleClient, model.RoleRestaurant, model.RoleAdmin)...)
}

// registerPublic mounts guest discovery endpoints behind the response cache.
func registerPublic(v1 *echo.Group, d Deps) {
	r := d.Restaurants
	v1.GET("/restaurants", r.Search, d.Cache)
	v1.GET("/restaurants/:id", r.Get, d.Cache)
	v1.GET("/restaurants/:id/menu", r.PublicMenu, d.Cache)
	v1.GET("/restaurants/:id/reviews", r.PublicReviews, d.Cache)
}
