package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kr37t1k/live2d-hub/internal/config"
	apperrors "github.com/kr37t1k/live2d-hub/internal/errors"
	"github.com/kr37t1k/live2d-hub/internal/hub"
	"github.com/kr37t1k/live2d-hub/internal/motion"
	"github.com/kr37t1k/live2d-hub/internal/store"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	store     *store.Store
	hub       *hub.Hub
	arbiter   *motion.Arbiter
	limits    *ConnectionLimits
	startTime time.Time
}

func NewServer(cfg *config.Config, st *store.Store, h *hub.Hub, arb *motion.Arbiter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		store:     st,
		hub:       h,
		arbiter:   arb,
		limits:    NewConnectionLimits(cfg.MaxObservers, cfg.MaxObserversPerIP, cfg.ConnectionRate, cfg.ConnectionBurst),
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
	slog.Info("Starting server", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
