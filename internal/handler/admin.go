package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// AdminHandler serves the revenue dashboard and review moderation.
type AdminHandler struct {
	Admin   *service.AdminService
	Reviews *service.ReviewService
	Cache   Purger
}

func NewAdminHandler(a *service.AdminService, r *service.ReviewService, cache Purger) *AdminHandler {
	if cache == nil {
		cache = noPurge{}
	}
	return &AdminHandler{Admin: a, Reviews: r, Cache: cache}
}

// RecordPayment handles POST /v1/admin/payments.
func (h *AdminHandler) RecordPayment(c echo.Context) error {
	var in service.PaymentInput
	if err := c.Bind(&in); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	p, err := h.Admin.RecordPayment(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPayments handles GET /v1/admin/payments?from=&to=.
func (h *AdminHandler) ListPayments(c echo.Context) error {
	from, to, err := dateRange(c)
	if err != nil {
		return fail(c, err)
	}
	items, err := h.Admin.ListPayments(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Revenue handles GET /v1/admin/revenue?from=&to=.
func (h *AdminHandler) Revenue(c echo.Context) error {
	from, to, err := dateRange(c)
	if err != nil {
		return fail(c, err)
	}
	rep, err := h.Admin.Revenue(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

type moderateReq struct {
	Hidden *bool `json:"hidden"`
}

// ModerateReview handles PATCH /v1/admin/reviews/:id with {"hidden": bool}.
func (h *AdminHandler) ModerateReview(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil || req.Hidden == nil {
		return errJSON(c, http.StatusBadRequest, "validation", "hidden: is required")
	}
	rv, err := h.Reviews.SetReviewHidden(c.Request().Context(), a, c.Param("id"), *req.Hidden)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, rv)
}
