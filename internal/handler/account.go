package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// AccountHandler serves the per-user favorites list and notification inbox.
type AccountHandler struct {
	Favorites     *service.FavoriteService
	Notifications *service.NotificationService
}

func NewAccountHandler(f *service.FavoriteService, n *service.NotificationService) *AccountHandler {
	return &AccountHandler{Favorites: f, Notifications: n}
}

// ListFavorites handles GET /v1/favorites.
func (h *AccountHandler) ListFavorites(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	items, err := h.Favorites.List(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddFavorite handles POST /v1/favorites/:restaurant_id.  Adding twice is
// not an error.
func (h *AccountHandler) AddFavorite(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	rid, ok := parseID(c, "restaurant_id")
	if !ok {
		return nil
	}
	if err := h.Favorites.Add(c.Request().Context(), a.UserID, rid); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /v1/favorites/:restaurant_id.
func (h *AccountHandler) RemoveFavorite(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	rid, ok := parseID(c, "restaurant_id")
	if !ok {
		return nil
	}
	if err := h.Favorites.Remove(c.Request().Context(), a.UserID, rid); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListNotifications handles GET /v1/notifications?unread=&limit=.
func (h *AccountHandler) ListNotifications(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return fail(c, err)
	}
	items, err := h.Notifications.List(c.Request().Context(), a.UserID, unread, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkNotificationRead handles POST /v1/notifications/:id/read.
func (h *AccountHandler) MarkNotificationRead(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), a.UserID, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /v1/notifications/read-all.
func (h *AccountHandler) MarkAllNotificationsRead(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	n, err := h.Notifications.MarkAllRead(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
