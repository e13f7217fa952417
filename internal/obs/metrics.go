package obs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"
)

// Metrics collects lightweight counters and latency stats for the chat
// ingestion path. All methods are safe on a nil receiver so callers never
// need to guard.
type Metrics struct {
	frames            uint64
	chatMessages      uint64
	pongs             uint64
	malformedFrames   uint64
	resolveFailures   uint64
	socketErrors      uint64
	heartbeatTimeouts uint64
	reconnects        uint64
	queueDrops        uint64

	decodeLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Frames            uint64
	ChatMessages      uint64
	Pongs             uint64
	MalformedFrames   uint64
	ResolveFailures   uint64
	SocketErrors      uint64
	HeartbeatTimeouts uint64
	Reconnects        uint64
	QueueDrops        uint64
	DecodeLatency     LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncFrame records one inbound frame.
func (m *Metrics) IncFrame() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.frames, 1)
}

// IncChat records one decoded chat message.
func (m *Metrics) IncChat() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.chatMessages, 1)
}

// IncPong records one liveness reply.
func (m *Metrics) IncPong() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.pongs, 1)
}

// IncMalformed records one frame dropped at either decode layer.
func (m *Metrics) IncMalformed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.malformedFrames, 1)
}

// IncResolveFailure records one failed channel lookup.
func (m *Metrics) IncResolveFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.resolveFailures, 1)
}

// IncSocketError records one socket open/read/write failure.
func (m *Metrics) IncSocketError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.socketErrors, 1)
}

// IncHeartbeatTimeout records one missed liveness reply.
func (m *Metrics) IncHeartbeatTimeout() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.heartbeatTimeouts, 1)
}

// IncReconnect records one scheduled reconnect attempt.
func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

// IncQueueDrop records an event dropped by a full dispatch queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// ObserveDecode measures one frame decode.
func (m *Metrics) ObserveDecode(d time.Duration) {
	if m == nil {
		return
	}
	m.decodeLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Frames:            atomic.LoadUint64(&m.frames),
		ChatMessages:      atomic.LoadUint64(&m.chatMessages),
		Pongs:             atomic.LoadUint64(&m.pongs),
		MalformedFrames:   atomic.LoadUint64(&m.malformedFrames),
		ResolveFailures:   atomic.LoadUint64(&m.resolveFailures),
		SocketErrors:      atomic.LoadUint64(&m.socketErrors),
		HeartbeatTimeouts: atomic.LoadUint64(&m.heartbeatTimeouts),
		Reconnects:        atomic.LoadUint64(&m.reconnects),
		QueueDrops:        atomic.LoadUint64(&m.queueDrops),
		DecodeLatency:     m.decodeLatency.Snapshot(),
	}
}

// RunReportSchedule logs a metrics snapshot every interval until ctx is done.
func (m *Metrics) RunReportSchedule(ctx context.Context, interval time.Duration) {
	if m == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.Snapshot()
			logs.Infof("ingest stats, frames: %d, chat: %d, pongs: %d, malformed: %d, reconnects: %d, drops: %d, decode avg: %s",
				snap.Frames, snap.ChatMessages, snap.Pongs, snap.MalformedFrames, snap.Reconnects, snap.QueueDrops, snap.DecodeLatency.Avg)
		}
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
