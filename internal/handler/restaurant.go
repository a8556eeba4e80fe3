package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// RestaurantHandler serves restaurant discovery and the owner's profile,
// menu and review replies.  Every owner write purges the public cache.
type RestaurantHandler struct {
	Restaurants *service.RestaurantService
	Menu        *service.MenuService
	Reviews     *service.ReviewService
	Cache       Purger
}

func NewRestaurantHandler(r *service.RestaurantService, m *service.MenuService, rv *service.ReviewService, cache Purger) *RestaurantHandler {
	if r == nil || m == nil || rv == nil {
		panic("nil service passed to NewRestaurantHandler")
	}
	if cache == nil {
		cache = noPurge{}
	}
	return &RestaurantHandler{Restaurants: r, Menu: m, Reviews: rv, Cache: cache}
}

// Search handles GET /v1/restaurants?q=&city=&cuisine=&certified=&limit=&offset=.
func (h *RestaurantHandler) Search(c echo.Context) error {
	f := repository.SearchFilter{
		Query:   c.QueryParam("q"),
		City:    c.QueryParam("city"),
		Cuisine: c.QueryParam("cuisine"),
	}
	if v := c.QueryParam("certified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fail(c, &service.ValidationError{Field: "certified", Msg: "must be true or false"})
		}
		f.Certified = &b
	}
	var err error
	if f.Limit, err = queryInt(c, "limit", 0); err != nil {
		return fail(c, err)
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return fail(c, err)
	}
	items, err := h.Restaurants.Search(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/restaurants/:id.
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	r, err := h.Restaurants.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// PublicMenu handles GET /v1/restaurants/:id/menu (available items only).
func (h *RestaurantHandler) PublicMenu(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	items, err := h.Menu.Public(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// PublicReviews handles GET /v1/restaurants/:id/reviews.
func (h *RestaurantHandler) PublicReviews(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	page, err := h.Reviews.ListRestaurantReviews(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// CreateOwn handles POST /v1/owner/restaurant.
func (h *RestaurantHandler) CreateOwn(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var in service.RestaurantInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	r, err := h.Restaurants.Create(c.Request().Context(), a.UserID, in)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, r)
}

// UpdateOwn handles PUT /v1/owner/restaurant.
func (h *RestaurantHandler) UpdateOwn(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var in service.RestaurantInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	r, err := h.Restaurants.Update(c.Request().Context(), a.UserID, in)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, r)
}

// GetOwn handles GET /v1/owner/restaurant.
func (h *RestaurantHandler) GetOwn(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	r, err := h.Restaurants.Own(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// OwnMenu handles GET /v1/owner/menu, including unavailable items.
func (h *RestaurantHandler) OwnMenu(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	items, err := h.Menu.Own(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddMenuItem handles POST /v1/owner/menu.
func (h *RestaurantHandler) AddMenuItem(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var in service.MenuItemInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	m, err := h.Menu.Add(c.Request().Context(), a.UserID, in)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, m)
}

// UpdateMenuItem handles PUT /v1/owner/menu/:id.
func (h *RestaurantHandler) UpdateMenuItem(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	var in service.MenuItemInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	m, err := h.Menu.Update(c.Request().Context(), a.UserID, id, in)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, m)
}

// DeleteMenuItem handles DELETE /v1/owner/menu/:id.
func (h *RestaurantHandler) DeleteMenuItem(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	if err := h.Menu.Delete(c.Request().Context(), a.UserID, id); err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

type replyReq struct {
	Reply string `json:"reply"`
}

// ReplyToReview handles POST /v1/owner/reviews/:id/reply.
func (h *RestaurantHandler) ReplyToReview(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req replyReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	rv, err := h.Reviews.ReplyToReview(c.Request().Context(), a, c.Param("id"), req.Reply)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, rv)
}
