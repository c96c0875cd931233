package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kr37t1k/live2d-hub/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	if err := c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleReadiness reports ready once the hub actor is answering. All
// state is in-process, so there are no external dependencies to probe.
func (s *Server) handleReadiness(c echo.Context) error {
	if s.hub.ObserverCount() < 0 {
		return c.JSON(503, map[string]string{
			"status":       "unhealthy",
			"failed_check": "hub",
		})
	}
	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
