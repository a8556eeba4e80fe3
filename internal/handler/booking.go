package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// BookingHandler serves the client booking endpoints and the owner's
// booking desk (status changes and QR check-in).
type BookingHandler struct {
	Bookings *service.BookingService
	Reviews  *service.ReviewService
	Cache    Purger
}

func NewBookingHandler(b *service.BookingService, r *service.ReviewService, cache Purger) *BookingHandler {
	if b == nil || r == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if cache == nil {
		cache = noPurge{}
	}
	return &BookingHandler{Bookings: b, Reviews: r, Cache: cache}
}

type createBookingReq struct {
	RestaurantID    uint64 `json:"restaurant_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	GuestCount      int    `json:"guest_count"`
	SpecialRequests string `json:"special_requests"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	b, err := h.Bookings.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		ClientID:        a.UserID,
		RestaurantID:    req.RestaurantID,
		Date:            req.Date,
		Time:            req.Time,
		GuestCount:      req.GuestCount,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /v1/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	items, err := h.Bookings.ListClientBookings(c.Request().Context(), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id for the client, the owner or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	b, err := h.Bookings.GetBooking(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// QRCode handles GET /v1/bookings/:id/qr.png.  ?size= sets the edge in
// pixels.
func (h *BookingHandler) QRCode(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	png, err := h.Bookings.QRCode(c.Request().Context(), a, c.Param("id"), size)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	b, err := h.Bookings.TransitionStatus(c.Request().Context(), a, c.Param("id"), model.BookingCancelled)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ReviewEligibility handles GET /v1/bookings/:id/review-eligibility.
func (h *BookingHandler) ReviewEligibility(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	el, err := h.Reviews.CheckReviewEligibility(c.Request().Context(), c.Param("id"), a.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, el)
}

type submitReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitReview handles POST /v1/bookings/:id/review.
func (h *BookingHandler) SubmitReview(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req submitReviewReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	rv, err := h.Reviews.SubmitReview(c.Request().Context(), c.Param("id"), a.UserID, req.Rating, req.Comment)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, rv)
}

// OwnerList handles GET /v1/owner/bookings?status=&date=&limit=&offset=.
func (h *BookingHandler) OwnerList(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return fail(c, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return fail(c, err)
	}
	items, err := h.Bookings.ListRestaurantBookings(c.Request().Context(), a.UserID, service.RestaurantBookingFilter{
		Status: c.QueryParam("status"),
		Date:   c.QueryParam("date"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/owner/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	to := model.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	b, err := h.Bookings.TransitionStatus(c.Request().Context(), a, c.Param("id"), to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

type checkinReq struct {
	QRToken string `json:"qr_token"`
}

// CheckIn handles POST /v1/owner/checkin with the scanned QR payload.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req checkinReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	b, err := h.Bookings.ScanArrival(c.Request().Context(), a, req.QRToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
