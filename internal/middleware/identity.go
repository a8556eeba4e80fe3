package middleware

// identity.go reads the authenticated caller back out of the Echo context.

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/utils"
)

// ActorFrom returns the caller set by JWTAuth.  ok is false for anonymous
// requests.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	uid, ok := c.Get(CtxUserID).(uint64)
	if !ok || uid == 0 {
		return model.Actor{}, false
	}
	role, _ := c.Get(CtxRole).(string)
	return model.Actor{UserID: uid, Role: role}, true
}

// userKey identifies the caller for rate limiting: the actor set by JWTAuth,
// else the subject of a valid bearer token, else "anon".  Nothing is stored
// on the context, so route guards still run their own check.
func userKey(c echo.Context, secret string) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	if secret == "" {
		return "anon"
	}
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "anon"
	}
	claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	if err != nil {
		return "anon"
	}
	uid, err := claims.UserID()
	if err != nil || uid == 0 {
		return "anon"
	}
	return strconv.FormatUint(uid, 10)
}
