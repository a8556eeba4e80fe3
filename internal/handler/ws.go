package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/realtime"
)

// WSHandler upgrades authenticated users to a websocket that receives their
// notifications as JSON frames.
type WSHandler struct {
	Hub      *realtime.Hub
	Upgrader websocket.Upgrader
}

// NewWSHandler returns a handler that accepts upgrades from allowedOrigins;
// an empty list accepts any origin.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		Hub: hub,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Connect handles GET /v1/ws?token=.
func (h *WSHandler) Connect(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		logrus.WithError(err).Debug("ws: upgrade failed")
		return nil
	}
	defer conn.Close()

	sub := h.Hub.Subscribe(a.UserID)
	logrus.WithField("user_id", a.UserID).Debug("ws: connected")
	realtime.Serve(conn, sub)
	return nil
}
