package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/kr37t1k/live2d-hub/internal/errors"
	"github.com/kr37t1k/live2d-hub/internal/model"
	"github.com/kr37t1k/live2d-hub/internal/motion"
)

func (s *Server) handleGetState(c echo.Context) error {
	if err := c.JSON(200, s.store.Snapshot()); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleResetState(c echo.Context) error {
	s.store.Reset()
	if err := c.JSON(200, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetParameter(c echo.Context) error {
	id := c.Param("id")
	value, ok := s.store.Parameter(id)
	if !ok {
		return apperrors.NotFoundError("unknown parameter").WithField("id", id)
	}
	if err := c.JSON(200, map[string]any{"id": id, "value": value}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetParameter(c echo.Context) error {
	id := c.Param("id")

	var body struct {
		Value *float64 `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if body.Value == nil {
		return apperrors.ValidationError("value is required")
	}
	if !model.Finite(*body.Value) {
		return apperrors.ValidationError("value must be finite").WithField("id", id)
	}

	if !s.store.SetParameter(id, *body.Value) {
		return apperrors.NotFoundError("unknown parameter").WithField("id", id)
	}

	value, _ := s.store.Parameter(id)
	if err := c.JSON(200, map[string]any{"id": id, "value": value}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetExpression(c echo.Context) error {
	name := c.Param("name")

	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	active := true
	if body.Active != nil {
		active = *body.Active
	}

	if !s.store.SetExpression(name, active) {
		return apperrors.NotFoundError("unknown expression").WithField("expression", name)
	}

	if err := c.JSON(200, map[string]any{"expression": name, "active": active}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handlePlayMotion(c echo.Context) error {
	var body struct {
		Group    *string  `json:"group"`
		Index    *int     `json:"index"`
		Priority *int     `json:"priority"`
		Duration *float64 `json:"duration"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if body.Group == nil || *body.Group == "" {
		return apperrors.ValidationError("group is required")
	}

	index := 0
	if body.Index != nil {
		index = *body.Index
	}
	priority := model.PriorityNormal
	if body.Priority != nil {
		priority = model.Priority(*body.Priority)
		if !priority.Valid() {
			return apperrors.ValidationError("priority out of range").WithField("priority", *body.Priority)
		}
	}
	duration := motion.DefaultDuration
	if body.Duration != nil && *body.Duration > 0 {
		duration = time.Duration(*body.Duration * float64(time.Second))
	}

	started := s.arbiter.RequestWithDuration(*body.Group, index, priority, duration)
	if err := c.JSON(200, map[string]any{
		"group":    *body.Group,
		"index":    index,
		"priority": int(priority),
		"started":  started,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLipSync(c echo.Context) error {
	var body struct {
		Level *float64 `json:"level"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	level := 0.0
	if body.Level != nil {
		level = *body.Level
	}
	if !s.store.SetLipSync(level) {
		return apperrors.ValidationError("level must be finite")
	}

	if err := c.JSON(200, map[string]any{"level": level}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleEyeTracking(c echo.Context) error {
	var body struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	var x, y float64
	if body.X != nil {
		x = *body.X
	}
	if body.Y != nil {
		y = *body.Y
	}
	if !s.store.SetEyeTracking(x, y) {
		return apperrors.ValidationError("x and y must be finite")
	}

	if err := c.JSON(200, map[string]any{"x": x, "y": y}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleHeadRotation(c echo.Context) error {
	var body struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := c.Bind(&body); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if body.X == nil || body.Y == nil {
		return apperrors.ValidationError("x and y are required")
	}
	z := 0.0
	if body.Z != nil {
		z = *body.Z
	}
	if !s.store.SetHeadRotation(*body.X, *body.Y, z) {
		return apperrors.ValidationError("rotation angles must be finite")
	}

	if err := c.JSON(200, map[string]any{"x": *body.X, "y": *body.Y, "z": z}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleObserverCount(c echo.Context) error {
	count := s.hub.ObserverCount()
	if count < 0 {
		return apperrors.InternalError("hub is not responding", nil)
	}
	if err := c.JSON(200, map[string]int{"count": count}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
