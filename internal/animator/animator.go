// Package animator drives the procedural animation channels (breathing,
// blinking, idle sway) that mutate the store independently of any
// external client. All channels run on a single goroutine; deferred
// steps like the blink hold are timers on the same loop, never sleeps.
package animator

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
	"github.com/kr37t1k/live2d-hub/internal/store"
)

const (
	breathInterval  = 100 * time.Millisecond
	breathCenter    = 0.5
	breathAmplitude = 0.1
	breathAngularHz = 0.5 // radians per second

	blinkCheckInterval = 500 * time.Millisecond
	blinkMinGap        = 3 * time.Second
	blinkThreshold     = 0.7 // draw must exceed this (30% chance per check)
	blinkHold          = 100 * time.Millisecond

	swayAmplitude = 0.3
	swayAngularHz = 1.5

	expressionPulseInterval = 6 * time.Second
	expressionPulseDuration = 2 * time.Second
)

// Animator runs the procedural channels until stopped. Stopping is
// terminal; a stopped animator cannot be restarted.
type Animator struct {
	store       *store.Store
	clock       clockwork.Clock
	rand        func() float64
	expressions []string

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Option configures an Animator.
type Option func(*Animator)

// WithRand replaces the uniform [0,1) source used for blink draws and
// expression selection. Used by tests for deterministic sequences.
func WithRand(fn func() float64) Option {
	return func(a *Animator) { a.rand = fn }
}

// WithExpressions replaces the expression set used for idle pulses.
func WithExpressions(names []string) Option {
	return func(a *Animator) { a.expressions = names }
}

func New(st *store.Store, clock clockwork.Clock, opts ...Option) *Animator {
	a := &Animator{
		store:       st,
		clock:       clock,
		rand:        rand.Float64,
		expressions: model.DefaultExpressions(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the animation loop.
func (a *Animator) Start() {
	go a.run()
}

// Stop terminates the loop and blocks until it has exited. A blink
// sequence in flight is completed (eyes reopened) before Stop returns.
func (a *Animator) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	<-a.doneCh
}

func (a *Animator) run() {
	defer close(a.doneCh)

	epoch := a.clock.Now()
	lastBlink := epoch

	breathTicker := a.clock.NewTicker(breathInterval)
	defer breathTicker.Stop()
	blinkTicker := a.clock.NewTicker(blinkCheckInterval)
	defer blinkTicker.Stop()

	var (
		blinkReopen    clockwork.Timer
		exprDeactivate clockwork.Timer
		activeExpr     string
		lastExprPulse  = epoch
		blinking       bool
	)

	for {
		// Nil channels block forever, so inactive timers drop out of
		// the select without extra bookkeeping.
		var reopenCh, exprCh <-chan time.Time
		if blinkReopen != nil {
			reopenCh = blinkReopen.Chan()
		}
		if exprDeactivate != nil {
			exprCh = exprDeactivate.Chan()
		}

		select {
		case <-breathTicker.Chan():
			t := a.clock.Since(epoch).Seconds()
			if a.store.BreathingEnabled() {
				metrics.AnimatorTicksTotal.WithLabelValues("breathing").Inc()
				a.store.SetParameter(model.ParamBreath, breathCenter+breathAmplitude*math.Sin(t*breathAngularHz))
			}
			if a.store.IdleSwayEnabled() {
				metrics.AnimatorTicksTotal.WithLabelValues("idle").Inc()
				a.store.SetParameter(model.ParamAngleX, swayAmplitude*math.Sin(t*swayAngularHz))

				if exprDeactivate == nil && a.clock.Since(lastExprPulse) >= expressionPulseInterval && len(a.expressions) > 0 {
					activeExpr = a.expressions[int(a.rand()*float64(len(a.expressions)))%len(a.expressions)]
					a.store.SetExpression(activeExpr, true)
					exprDeactivate = a.clock.NewTimer(expressionPulseDuration)
					lastExprPulse = a.clock.Now()
				}
			}

		case <-blinkTicker.Chan():
			if blinking || !a.store.EyeBlinkEnabled() {
				continue
			}
			metrics.AnimatorTicksTotal.WithLabelValues("blink").Inc()
			if a.clock.Since(lastBlink) < blinkMinGap {
				continue
			}
			if a.rand() <= blinkThreshold {
				continue
			}
			a.closeEyes()
			blinking = true
			lastBlink = a.clock.Now()
			blinkReopen = a.clock.NewTimer(blinkHold)

		case <-reopenCh:
			a.openEyes()
			blinking = false
			blinkReopen = nil
			metrics.AnimatorBlinksTotal.Inc()

		case <-exprCh:
			a.store.SetExpression(activeExpr, false)
			exprDeactivate = nil
			activeExpr = ""

		case <-a.stopCh:
			// Never leave the model with its eyes shut.
			if blinking {
				a.openEyes()
				metrics.AnimatorBlinksTotal.Inc()
			}
			if activeExpr != "" {
				a.store.SetExpression(activeExpr, false)
			}
			slog.Info("Animator stopped")
			return
		}
	}
}

func (a *Animator) closeEyes() {
	a.store.SetParameter(model.ParamEyeLOpen, 0)
	a.store.SetParameter(model.ParamEyeROpen, 0)
}

func (a *Animator) openEyes() {
	a.store.SetParameter(model.ParamEyeLOpen, 1)
	a.store.SetParameter(model.ParamEyeROpen, 1)
}
