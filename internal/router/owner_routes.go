package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// registerOwner mounts RESTAURANT-scoped endpoints under /v1/owner.
func registerOwner(v1 *echo.Group, d Deps) {
	g := v1.Group("/owner", guard(d.JWTSecret, model.RoleRestaurant)...)

	// ---- Restaurant profile ----
	g.GET("/restaurant", d.Restaurants.GetOwn)
	g.POST("/restaurant", d.Restaurants.CreateOwn)
	g.PUT("/restaurant", d.Restaurants.UpdateOwn)

	// ---- Menu ----
	g.GET("/menu", d.Restaurants.OwnMenu)
	g.POST("/menu", d.Restaurants.AddMenuItem)
	g.PUT("/menu/:id", d.Restaurants.UpdateMenuItem)
	g.DELETE("/menu/:id", d.Restaurants.DeleteMenuItem)

	// ---- Bookings desk ----
	g.GET("/bookings", d.Bookings.OwnerList)
	g.PATCH("/bookings/:id/status", d.Bookings.UpdateStatus)
	g.POST("/checkin", d.Bookings.CheckIn)

	// ---- Reviews ----
	g.POST("/reviews/:id/reply", d.Restaurants.ReplyToReview)
}

// registerAdmin mounts the ADMIN dashboard and moderation endpoints.
func registerAdmin(v1 *echo.Group, d Deps) {
	g := v1.Group("/admin", guard(d.JWTSecret, model.RoleAdmin)...)
	g.POST("/payments", d.Admin.RecordPayment)
	g.GET("/payments", d.Admin.ListPayments)
	g.GET("/revenue", d.Admin.Revenue)
	g.PATCH("/reviews/:id", d.Admin.ModerateReview)
}
