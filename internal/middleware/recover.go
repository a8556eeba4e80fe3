package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Recover turns a handler panic into a 500 and logs the stack.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				logrus.WithFields(logrus.Fields{
					"method": c.Request().Method,
					"path":   c.Request().URL.Path,
					"stack":  string(debug.Stack()),
				}).Error(fmt.Sprintf("panic: %v", r))
				err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
			}()
			return next(c)
		}
	}
}
