package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kr37t1k/live2d-hub/internal/animator"
	"github.com/kr37t1k/live2d-hub/internal/bus"
	"github.com/kr37t1k/live2d-hub/internal/config"
	"github.com/kr37t1k/live2d-hub/internal/hub"
	"github.com/kr37t1k/live2d-hub/internal/logging"
	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
	"github.com/kr37t1k/live2d-hub/internal/motion"
	"github.com/kr37t1k/live2d-hub/internal/server"
	"github.com/kr37t1k/live2d-hub/internal/store"
	"github.com/kr37t1k/live2d-hub/internal/version"
)

func setupConfig() *config.Config {
	host := flag.String("host", "", "host to bind (overrides HOST)")
	port := flag.String("port", "", "port to bind (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}

	if *host != "" {
		cfg.Host = *host
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, anim *animator.Animator, h *hub.Hub, events *bus.Bus) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		anim.Stop()
		h.Stop()
		events.Close()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)
	slog.Info("Application starting", "host", cfg.Host, "port", cfg.Port, "version", info.Version)

	events := bus.New()

	st := store.New(model.DefaultParameterSpecs(), model.DefaultExpressions(), events)
	st.SetIdleSwayEnabled(cfg.IdleSwayEnabled)

	arbiter := motion.NewArbiter(st, events, clock)

	anim := animator.New(st, clock)
	anim.Start()

	h := hub.New(st, arbiter, events, clock)

	srv := server.NewServer(cfg, st, h, arbiter)

	done := runGracefulShutdown(srv, anim, h, events)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
