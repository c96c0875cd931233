package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kr37t1k/live2d-hub/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Live2D clients connect from file:// and app origins
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("Connection rejected", "ip", ip, "reason", reason)
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "connection limit exceeded",
		})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	observerID, err := s.hub.Register(conn)
	if err != nil {
		slog.Error("Failed to register observer", "ip", ip, "error", err)
		_ = conn.Close()
		return nil
	}

	slog.Info("Observer connected", "observer_id", observerID, "ip", ip)

	// Read pump, blocks until the connection drops. Inbound frames are
	// handed to the hub actor; replies and broadcasts travel through the
	// per-connection writer.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.hub.HandleInbound(observerID, payload)
	}

	s.hub.Unregister(observerID)
	slog.Info("Observer disconnected", "observer_id", observerID, "ip", ip)

	return nil
}
