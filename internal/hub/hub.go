// Package hub bridges the event bus to remote WebSocket observers and
// decodes inbound remote commands into store mutations. All observer
// bookkeeping happens on a single actor goroutine driven by a closed
// set of command variants.
package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kr37t1k/live2d-hub/internal/bus"
	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
	"github.com/kr37t1k/live2d-hub/internal/motion"
	"github.com/kr37t1k/live2d-hub/internal/store"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// --- Actor commands ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	replyChannel chan uuid.UUID
}

type unregisterCmd struct {
	baseHubCmd
	observerID uuid.UUID
}

type inboundCmd struct {
	baseHubCmd
	observerID uuid.UUID
	payload    []byte
}

type eventCmd struct {
	baseHubCmd
	event model.Event
}

type observerCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// --- Direct replies (sent to the originating connection only) ---

type parameterSetReply struct {
	Type    string  `json:"type"`
	Success bool    `json:"success"`
	ID      string  `json:"id"`
	Value   float64 `json:"value"`
}

type expressionSetReply struct {
	Type       string `json:"type"`
	Success    bool   `json:"success"`
	Expression string `json:"expression"`
	Active     bool   `json:"active"`
}

type motionPlayedReply struct {
	Type     string         `json:"type"`
	Success  bool           `json:"success"`
	Group    string         `json:"group"`
	Index    int            `json:"index"`
	Priority model.Priority `json:"priority"`
}

type lipSyncProcessedReply struct {
	Type  string  `json:"type"`
	Level float64 `json:"level"`
}

type eyeTrackingProcessedReply struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type headRotationProcessedReply struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

type stateReply struct {
	Type string         `json:"type"`
	Data model.Snapshot `json:"data"`
}

type stateResetReply struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

type clientsCountReply struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type errorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Hub owns the observer set. Mutations flow observer → decode → store;
// notifications flow store → bus → fan-out to every observer, including
// the one that issued the command, so all views converge on the same
// authoritative value.
type Hub struct {
	cmdCh     chan hubCmd
	clock     clockwork.Clock
	store     *store.Store
	arbiter   *motion.Arbiter
	observers map[uuid.UUID]*observerWriter
	done      chan struct{}
	cancelSub func()
}

func New(st *store.Store, arbiter *motion.Arbiter, events *bus.Bus, clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:     make(chan hubCmd, 256),
		clock:     clock,
		store:     st,
		arbiter:   arbiter,
		observers: make(map[uuid.UUID]*observerWriter),
		done:      make(chan struct{}),
	}

	eventCh, cancel := events.Subscribe()
	h.cancelSub = cancel
	go h.pumpEvents(eventCh)
	go h.run()
	return h
}

// pumpEvents forwards bus notifications into the actor loop.
func (h *Hub) pumpEvents(eventCh <-chan model.Event) {
	for ev := range eventCh {
		select {
		case h.cmdCh <- eventCmd{event: ev}:
		case <-h.done:
			return
		}
	}
}

// Register adds a connection as an observer and sends it a full state
// snapshot. Returns the observer id used for Unregister and HandleInbound.
func (h *Hub) Register(conn *websocket.Conn) (uuid.UUID, error) {
	replyCh := make(chan uuid.UUID, 1)
	h.cmdCh <- registerCmd{connection: conn, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-replyCh:
		return id, nil
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes an observer. Safe to call for ids already gone.
func (h *Hub) Unregister(observerID uuid.UUID) {
	h.cmdCh <- unregisterCmd{observerID: observerID}
}

// HandleInbound feeds one raw inbound message from an observer into the
// actor for decoding and dispatch.
func (h *Hub) HandleInbound(observerID uuid.UUID, payload []byte) {
	h.cmdCh <- inboundCmd{observerID: observerID, payload: payload}
}

// ObserverCount returns the number of connected observers, or -1 if the
// actor did not answer within the command timeout.
func (h *Hub) ObserverCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- observerCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ObserverCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all observer connections. Blocks
// until the actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cancelSub()
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout, "observers", len(h.observers))
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllObservers("hub panic")
		}
		close(h.done)
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.observerID)
		case inboundCmd:
			h.handleInbound(c)
		case eventCmd:
			h.handleEvent(c.event)
		case observerCountCmd:
			c.replyChannel <- len(h.observers)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	id := uuid.New()
	writer := newObserverWriter(c.connection, h.clock)
	h.observers[id] = writer

	metrics.HubConnectedObservers.Set(float64(len(h.observers)))
	slog.Debug("Observer registered", "observer_id", id.String(), "total_observers", len(h.observers))

	// New observers receive the full state before any incremental event.
	h.send(id, writer, stateReply{Type: string(model.EventStateUpdate), Data: h.store.Snapshot()})

	c.replyChannel <- id
}

func (h *Hub) handleUnregister(observerID uuid.UUID) {
	writer, ok := h.observers[observerID]
	if !ok {
		return
	}
	writer.stop()
	delete(h.observers, observerID)

	metrics.HubConnectedObservers.Set(float64(len(h.observers)))
	slog.Debug("Observer unregistered", "observer_id", observerID.String(), "remaining_observers", len(h.observers))
}

func (h *Hub) handleEvent(ev model.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal broadcast event", "event_type", ev.Type, "error", err)
		return
	}

	var slow []uuid.UUID
	for id, writer := range h.observers {
		if !writer.trySend(data) {
			slow = append(slow, id)
		}
	}

	for _, id := range slow {
		slog.Warn("Disconnecting slow observer", "observer_id", id.String())
		metrics.HubSlowObserversEvicted.Inc()
		h.handleUnregister(id)
	}
}

func (h *Hub) handleInbound(c inboundCmd) {
	writer, ok := h.observers[c.observerID]
	if !ok {
		return
	}

	cmd, err := DecodeCommand(c.payload)
	if err != nil {
		metrics.HubCommandsTotal.WithLabelValues("unknown", "error").Inc()
		h.send(c.observerID, writer, errorReply{Type: string(model.EventError), Message: err.Error()})
		return
	}

	h.dispatch(c.observerID, writer, cmd)
}

// dispatch applies a decoded command and answers the originator. State
// changes reach every observer through the bus, so no broadcasting
// happens here.
func (h *Hub) dispatch(observerID uuid.UUID, writer *observerWriter, cmd Command) {
	switch c := cmd.(type) {
	case SetParameterCommand:
		ok := h.store.SetParameter(c.ID, c.Value)
		h.countCommand("set_parameter", ok)
		h.send(observerID, writer, parameterSetReply{Type: "parameter_set", Success: ok, ID: c.ID, Value: c.Value})

	case SetExpressionCommand:
		ok := h.store.SetExpression(c.Expression, c.Active)
		h.countCommand("set_expression", ok)
		h.send(observerID, writer, expressionSetReply{Type: "expression_set", Success: ok, Expression: c.Expression, Active: c.Active})

	case PlayMotionCommand:
		d := time.Duration(c.DurationSeconds * float64(time.Second))
		ok := h.arbiter.RequestWithDuration(c.Group, c.Index, c.Priority, d)
		h.countCommand("play_motion", ok)
		h.send(observerID, writer, motionPlayedReply{Type: "motion_played", Success: ok, Group: c.Group, Index: c.Index, Priority: c.Priority})

	case LipSyncCommand:
		ok := h.store.SetLipSync(c.Level)
		h.countCommand("lip_sync", ok)
		h.send(observerID, writer, lipSyncProcessedReply{Type: "lip_sync_processed", Level: c.Level})

	case EyeTrackingCommand:
		ok := h.store.SetEyeTracking(c.X, c.Y)
		h.countCommand("eye_tracking", ok)
		h.send(observerID, writer, eyeTrackingProcessedReply{Type: "eye_tracking_processed", X: c.X, Y: c.Y})

	case HeadRotationCommand:
		ok := h.store.SetHeadRotation(c.X, c.Y, c.Z)
		h.countCommand("head_rotation", ok)
		h.send(observerID, writer, headRotationProcessedReply{Type: "head_rotation_processed", X: c.X, Y: c.Y, Z: c.Z})

	case GetStateCommand:
		h.countCommand("get_state", true)
		h.send(observerID, writer, stateReply{Type: "current_state", Data: h.store.Snapshot()})

	case ResetStateCommand:
		h.store.Reset()
		h.countCommand("reset_state", true)
		h.send(observerID, writer, stateResetReply{Type: "state_reset", Success: true})

	case GetClientsCountCommand:
		h.countCommand("get_clients_count", true)
		h.send(observerID, writer, clientsCountReply{Type: "clients_count_response", Count: len(h.observers)})
	}
}

func (h *Hub) countCommand(name string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	metrics.HubCommandsTotal.WithLabelValues(name, result).Inc()
}

// send marshals a direct reply and queues it for one observer, evicting
// it when slow.
func (h *Hub) send(observerID uuid.UUID, writer *observerWriter, reply any) {
	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("Failed to marshal reply", "error", err)
		return
	}
	if !writer.trySend(data) {
		slog.Warn("Disconnecting slow observer", "observer_id", observerID.String())
		metrics.HubSlowObserversEvicted.Inc()
		h.handleUnregister(observerID)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "observers", len(h.observers))
	h.closeAllObservers("Server shutting down")
}

func (h *Hub) closeAllObservers(reason string) {
	for id, writer := range h.observers {
		writer.stopGraceful(reason)
		delete(h.observers, id)
	}
	metrics.HubConnectedObservers.Set(0)
}
