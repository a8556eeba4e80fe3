package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/middleware"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// Purger drops cached public responses after an owner edit.
type Purger interface {
	Purge(ctx context.Context)
}

type noPurge struct{}

func (noPurge) Purge(context.Context) {}

func errJSON(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

// actor returns the authenticated caller or writes 401.
func actor(c echo.Context) (model.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		_ = errJSON(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	return a, ok
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		_ = errJSON(c, http.StatusBadRequest, "validation", "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &service.ValidationError{Field: name, Msg: "must be a non-negative integer"}
	}
	return n, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: name, Msg: "must be YYYY-MM-DD"}
	}
	return t, nil
}

// dateRange reads ?from= and ?to=; to is inclusive so one day is added.
func dateRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return from, time.Time{}, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return from, to, err
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// fail maps service errors to HTTP responses.  Unknown errors are logged
// and answered with a generic 500.
func fail(c echo.Context, err error) error {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		fe *service.ForbiddenError
		it *service.IllegalTransitionError
		is *service.InvalidStateError
		ce *service.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return errJSON(c, http.StatusBadRequest, "validation", ve.Error())
	case errors.As(err, &nf):
		return errJSON(c, http.StatusNotFound, "not_found", nf.Error())
	case errors.As(err, &fe):
		return errJSON(c, http.StatusForbidden, fe.Reason, fe.Error())
	case errors.As(err, &it):
		return errJSON(c, http.StatusConflict, "illegal_transition", it.Error())
	case errors.As(err, &is):
		return errJSON(c, http.StatusConflict, "invalid_state", is.Error())
	case errors.As(err, &ce):
		return errJSON(c, http.StatusConflict, "conflict", ce.Error())
	}
	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error("request failed")
	return errJSON(c, http.StatusInternalServerError, "internal", "internal error")
}
