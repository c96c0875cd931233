package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// WebSocket observers
	s.echo.GET("/ws", s.handleWebSocket)

	// REST control surface, mirrors the WebSocket command set
	s.echo.GET("/api/state", s.handleGetState)
	s.echo.POST("/api/state/reset", s.handleResetState)
	s.echo.GET("/api/parameters/:id", s.handleGetParameter)
	s.echo.PUT("/api/parameters/:id", s.handleSetParameter)
	s.echo.PUT("/api/expressions/:name", s.handleSetExpression)
	s.echo.POST("/api/motions", s.handlePlayMotion)
	s.echo.POST("/api/lipsync", s.handleLipSync)
	s.echo.POST("/api/eyetracking", s.handleEyeTracking)
	s.echo.POST("/api/headrotation", s.handleHeadRotation)
	s.echo.GET("/api/observers", s.handleObserverCount)
}
