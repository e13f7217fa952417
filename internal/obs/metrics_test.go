package obs

import (
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncFrame()
	m.IncFrame()
	m.IncChat()
	m.IncPong()
	m.IncMalformed()
	m.IncResolveFailure()
	m.IncSocketError()
	m.IncHeartbeatTimeout()
	m.IncReconnect()
	m.IncQueueDrop()

	snap := m.Snapshot()
	if snap.Frames != 2 {
		t.Fatalf("frames: %d", snap.Frames)
	}
	if snap.ChatMessages != 1 || snap.Pongs != 1 || snap.MalformedFrames != 1 {
		t.Fatalf("message counters: %+v", snap)
	}
	if snap.ResolveFailures != 1 || snap.SocketErrors != 1 || snap.HeartbeatTimeouts != 1 {
		t.Fatalf("failure counters: %+v", snap)
	}
	if snap.Reconnects != 1 || snap.QueueDrops != 1 {
		t.Fatalf("recovery counters: %+v", snap)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.IncFrame()
	m.IncChat()
	m.IncPong()
	m.IncMalformed()
	m.IncResolveFailure()
	m.IncSocketError()
	m.IncHeartbeatTimeout()
	m.IncReconnect()
	m.IncQueueDrop()
	m.ObserveDecode(time.Millisecond)

	if snap := m.Snapshot(); snap.Frames != 0 {
		t.Fatalf("nil metrics snapshot: %+v", snap)
	}
}

func TestDecodeLatency(t *testing.T) {
	m := NewMetrics()
	m.ObserveDecode(2 * time.Millisecond)
	m.ObserveDecode(4 * time.Millisecond)
	m.ObserveDecode(6 * time.Millisecond)

	lat := m.Snapshot().DecodeLatency
	if lat.Count != 3 {
		t.Fatalf("count: %d", lat.Count)
	}
	if lat.Min != 2*time.Millisecond {
		t.Fatalf("min: %s", lat.Min)
	}
	if lat.Max != 6*time.Millisecond {
		t.Fatalf("max: %s", lat.Max)
	}
	if lat.Avg != 4*time.Millisecond {
		t.Fatalf("avg: %s", lat.Avg)
	}
}

func TestLatencyIgnoresNegative(t *testing.T) {
	var l LatencyStats
	l.Observe(-time.Second)
	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("negative sample counted: %+v", snap)
	}
}
