// Package server implements the HTTP server using Echo framework.
//
// Routes: health/metrics/version (observability), /ws (observer WebSocket),
// /api (REST control surface mirroring the WebSocket command set).
// Handlers split by concern: handlers_ws.go, handlers_api.go, handlers_health.go.
package server
