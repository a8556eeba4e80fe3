package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// registerClient mounts the CLIENT booking flow.  GET /bookings/:id is also
// open to the restaurant owner and admins; the service checks ownership.
func registerClient(v1 *echo.Group, d Deps) {
	client := guard(d.JWTSecret, model.RoleClient)
	h := d.Bookings

	v1.POST("/bookings", h.Create, client...)
	v1.GET("/bookings", h.ListMine, client...)
	v1.GET("/bookings/:id", h.Get, guard(d.JWTSecret, model.RoleClient, model.RoleRestaurant, model.RoleAdmin)...)
	v1.GET("/bookings/:id/qr.png", h.QRCode, client...)
	v1.POST("/bookings/:id/cancel", h.Cancel, client...)
	v1.GET("/bookings/:id/review-eligibility", h.ReviewEligibility, client...)
	v1.POST("/bookings/:id/review", h.SubmitReview, client...)

	a := d.Account
	v1.GET("/favorites", a.ListFavorites, client...)
	v1.POST("/favorites/:restaurant_id", a.AddFavorite, client...)
	v1.DELETE("/favorites/:restaurant_id", a.RemoveFavorite, client...)
}

// registerAccount mounts the notification inbox shared by every role.
func registerAccount(v1 *echo.Group, d Deps) {
	all := guard(d.JWTSecret, model.RoleClient, model.RoleRestaurant, model.RoleAdmin)
	a := d.Account
	v1.GET("/notifications", a.ListNotifications, all...)
	v1.POST("/notifications/read-all", a.MarkAllNotificationsRead, all...)
	v1.POST("/notifications/:id/read", a.MarkNotificationRead, all...)
}

