package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kr37t1k/live2d-hub/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 32
)

// observerWriter serializes all writes to one WebSocket connection on a
// dedicated goroutine. A write failure closes the connection, which
// unblocks the read pump and triggers deregistration; other observers
// are unaffected.
type observerWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newObserverWriter(connection *websocket.Conn, clock clockwork.Clock) *observerWriter {
	ow := &observerWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	ow.configurePongHandler()
	ow.wg.Add(1)
	go ow.run()
	return ow
}

func (ow *observerWriter) run() {
	ticker := ow.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer ow.wg.Done()

	for {
		select {
		case msg, ok := <-ow.sendChannel:
			if !ok {
				return
			}
			start := ow.clock.Now()
			ow.updateWriteDeadline()
			if err := ow.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = ow.connection.Close()
				return
			}
			metrics.HubSendDuration.Observe(ow.clock.Since(start).Seconds())
		case <-ticker.Chan():
			ow.updateWriteDeadline()
			if err := ow.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				_ = ow.connection.Close()
				return
			}
		case <-ow.doneChannel:
			return
		}
	}
}

// trySend queues msg without blocking. Returns false when the buffer is
// full, marking the observer as slow.
func (ow *observerWriter) trySend(msg []byte) bool {
	select {
	case ow.sendChannel <- msg:
		return true
	default:
		return false
	}
}

func (ow *observerWriter) stop() {
	ow.stopOnce.Do(func() {
		close(ow.doneChannel)
		_ = ow.connection.Close()
	})
	ow.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing.
func (ow *observerWriter) stopGraceful(reason string) {
	ow.stopOnce.Do(func() {
		close(ow.doneChannel)

		// The run goroutine must exit before we write the close frame;
		// gorilla connections do not allow concurrent writers.
		ow.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		ow.updateWriteDeadline()
		_ = ow.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = ow.connection.Close()
	})
}

func (ow *observerWriter) configurePongHandler() {
	ow.updateReadDeadline()
	ow.connection.SetPongHandler(func(string) error {
		ow.updateReadDeadline()
		return nil
	})
}

func (ow *observerWriter) updateWriteDeadline() {
	_ = ow.connection.SetWriteDeadline(ow.clock.Now().Add(writeDeadline))
}

func (ow *observerWriter) updateReadDeadline() {
	_ = ow.connection.SetReadDeadline(ow.clock.Now().Add(pongDeadline))
}
