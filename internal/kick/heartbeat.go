package kick

import (
	"sync"
	"time"
)

// heartbeat emits a liveness probe once per interval and reports a dead
// connection when a probe goes unanswered for a full interval. Broker-level
// close detection is unreliable on some networks, so this is the
// authoritative liveness signal; one missed reply is enough.
type heartbeat struct {
	clock    Clock
	interval time.Duration
	send     func()
	onDead   func()

	mu      sync.Mutex
	timer   Timer
	pending bool
	stopped bool
}

func newHeartbeat(clock Clock, interval time.Duration, send func(), onDead func()) *heartbeat {
	return &heartbeat{
		clock:    clock,
		interval: interval,
		send:     send,
		onDead:   onDead,
	}
}

// start arms the first probe timer. Calling start on a running heartbeat is a
// no-op.
func (h *heartbeat) start() {
	h.mu.Lock()
	if h.timer != nil {
		h.mu.Unlock()
		return
	}
	h.stopped = false
	h.pending = false
	h.timer = h.clock.AfterFunc(h.interval, h.tick)
	h.mu.Unlock()
}

func (h *heartbeat) tick() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	if h.pending {
		// Previous probe was never answered.
		h.stopped = true
		h.timer = nil
		h.mu.Unlock()
		h.onDead()
		return
	}
	h.pending = true
	h.timer = h.clock.AfterFunc(h.interval, h.tick)
	h.mu.Unlock()

	h.send()
}

// onReply clears the pending flag; invoked when a pong frame is decoded.
func (h *heartbeat) onReply() {
	h.mu.Lock()
	h.pending = false
	h.mu.Unlock()
}

// stop cancels the probe timer. No tick body runs after stop returns.
func (h *heartbeat) stop() {
	h.mu.Lock()
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()
}
