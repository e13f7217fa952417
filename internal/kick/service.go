package kick

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/fatih-yavuz/kick-notifier/internal/obs"
	"github.com/fatih-yavuz/kick-notifier/pkg/exception"
)

const (
	// DefaultHeartbeatInterval is the gap between liveness probes.
	DefaultHeartbeatInterval = 10 * time.Second
	// DefaultReconnectDelay is the fixed pause before a fresh resolve+connect
	// attempt. No backoff growth: fast recovery over storm protection.
	DefaultReconnectDelay = 5 * time.Second

	// App key, cluster and protocol version are static configuration of the
	// upstream broker.
	defaultBrokerURL = "wss://ws-us2.pusher.com/app/32cbd69e4b950bf97679?protocol=7&client=js&version=8.4.0-rc2&flash=false"
)

// Conn is the socket surface the session owns. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens the broker connection.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Deliver(title, body string)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config wires the service's collaborators. Zero fields other than Channel
// get production defaults.
type Config struct {
	Channel string

	Resolver ChannelResolver
	Dialer   Dialer
	Clock    Clock
	Notifier Notifier
	Metrics  *obs.Metrics

	BrokerURL         string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration

	// OnMessage receives every decoded chat message, invoked synchronously
	// from whichever goroutine decoded it.
	OnMessage func(username, content string)
	// OnDebugLog receives one line per noteworthy client event.
	OnDebugLog func(line string)
}

// Service is the externally visible lifecycle of the chat tailer. It owns the
// connection, the heartbeat, and the reconnect timer; all mutation funnels
// through its mutex, and deferred callbacks are discarded when their session
// generation is stale.
type Service struct {
	cfg Config

	mu         sync.Mutex
	gen        uint64
	running    bool
	connected  bool
	chatroomID int64
	live       bool
	viewers    int64
	conn       Conn
	hb         *heartbeat
	reconnect  Timer

	// firstNotice marks that the session has not reached Live since Start. A
	// failure before the first Live deserves a one-time user-visible notice;
	// steady-state failures surface as log lines only.
	firstNotice bool
}

// New validates the config and applies defaults.
func New(cfg Config) (*Service, error) {
	if cfg.Channel == "" {
		return nil, errors.New("missing channel name")
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver("", nil)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = wsDialer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = defaultBrokerURL
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Service{cfg: cfg}, nil
}

// Start begins (or restarts) tailing. Safe to call while already running: the
// current session is torn down and a fresh resolve+connect cycle begins.
func (s *Service) Start() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closeSessionLocked()
	s.cancelReconnectLocked()
	s.running = true
	s.firstNotice = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.debugf("starting, channel: %s", s.cfg.Channel)
	go s.connect(gen)
}

// Stop tears everything down. Safe to call repeatedly or before Start; no
// timer fires and no reconnect occurs afterwards.
func (s *Service) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.gen++
	s.cancelReconnectLocked()
	s.closeSessionLocked()
	s.mu.Unlock()

	if wasRunning {
		s.debugf("stopped")
	}
}

// Connected reports whether a live subscription is up.
func (s *Service) Connected() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Livestream reports the livestream state resolved for the current session.
func (s *Service) Livestream() (viewers int64, live bool) {
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewers, s.live
}

// connect runs one resolve+dial+subscribe cycle for the given generation.
// Results are discarded when the generation went stale while in flight.
func (s *Service) connect(gen uint64) {
	if !s.alive(gen) {
		return
	}

	s.debugf("resolving channel: %s", s.cfg.Channel)
	info, err := s.cfg.Resolver.Resolve(context.Background(), s.cfg.Channel)
	if err != nil {
		s.cfg.Metrics.IncResolveFailure()
		s.failure(gen, errors.Wrap(err, "resolve channel"))
		return
	}
	if info.Livestream != nil {
		s.debugf("channel is live, viewers: %d", info.Livestream.Viewers)
	}

	conn, err := s.cfg.Dialer.Dial(context.Background(), s.cfg.BrokerURL)
	if err != nil {
		s.cfg.Metrics.IncSocketError()
		s.failure(gen, errors.Wrap(err, "open broker socket"))
		return
	}

	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.chatroomID = info.ChatroomID
	if info.Livestream != nil {
		s.live = true
		s.viewers = info.Livestream.Viewers
	}
	s.hb = newHeartbeat(s.cfg.Clock, s.cfg.HeartbeatInterval,
		func() { s.sendPing(gen) },
		func() { s.heartbeatDead(gen) },
	)
	s.mu.Unlock()

	sub, err := EncodeSubscribe(info.ChatroomID)
	if err != nil {
		s.failure(gen, errors.Wrap(err, "encode subscribe"))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		s.cfg.Metrics.IncSocketError()
		s.failure(gen, errors.Wrap(err, "send subscribe"))
		return
	}

	// Live. The upstream protocol sends no subscription ack, so the session
	// goes live as soon as the subscribe frame is out.
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}
	hb := s.hb
	s.connected = true
	s.firstNotice = false
	s.mu.Unlock()

	hb.start()
	s.debugf("subscribed, topic: %s", TopicName(info.ChatroomID))
	go s.readLoop(gen, conn)
}

func (s *Service) readLoop(gen uint64, conn Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			cause := err
			if websocket.IsUnexpectedCloseError(err) || err == io.EOF {
				cause = exception.ErrSocketClosed
			}
			s.cfg.Metrics.IncSocketError()
			s.failure(gen, errors.Wrap(cause, "read frame"))
			return
		}
		s.handleFrame(gen, raw)
		if !s.alive(gen) {
			return
		}
	}
}

func (s *Service) handleFrame(gen uint64, raw []byte) {
	s.cfg.Metrics.IncFrame()

	began := time.Now()
	frame, err := Decode(raw)
	s.cfg.Metrics.ObserveDecode(time.Since(began))
	if err != nil {
		// Recoverable per-message error; the session stays live.
		s.cfg.Metrics.IncMalformed()
		s.debugf("ignoring malformed frame, err: %+v", err)
		return
	}

	switch frame.Kind {
	case FramePong:
		s.cfg.Metrics.IncPong()
		s.mu.Lock()
		hb := s.hb
		ok := gen == s.gen && s.connected
		s.mu.Unlock()
		if ok && hb != nil {
			hb.onReply()
		}
	case FrameChat:
		s.cfg.Metrics.IncChat()
		if s.cfg.Notifier != nil {
			s.cfg.Notifier.Deliver(frame.Chat.Username, frame.Chat.Content)
		}
		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(frame.Chat.Username, frame.Chat.Content)
		}
	default:
		// Unrecognized event tags are ignored without error.
	}
}

func (s *Service) sendPing(gen uint64) {
	s.mu.Lock()
	conn := s.conn
	ok := gen == s.gen && s.connected
	s.mu.Unlock()
	if !ok || conn == nil {
		return
	}

	ping, err := EncodePing()
	if err != nil {
		s.failure(gen, errors.Wrap(err, "encode ping"))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
		s.cfg.Metrics.IncSocketError()
		s.failure(gen, errors.Wrap(err, "send ping"))
	}
}

func (s *Service) heartbeatDead(gen uint64) {
	s.cfg.Metrics.IncHeartbeatTimeout()
	s.failure(gen, exception.ErrHeartbeatTimeout)
}

// failure tears down the session of the given generation and arms the
// reconnect timer. Stale generations are discarded, so concurrent failure
// signals from the read loop and the heartbeat collapse into one teardown.
func (s *Service) failure(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}
	s.gen++
	next := s.gen
	s.closeSessionLocked()
	s.cancelReconnectLocked()
	notice := s.firstNotice
	s.firstNotice = false
	delay := s.cfg.ReconnectDelay
	s.reconnect = s.cfg.Clock.AfterFunc(delay, func() { s.reconnectFire(next) })
	s.mu.Unlock()

	s.cfg.Metrics.IncReconnect()
	logs.Errorf("connection lost, reconnecting in %s, err: %+v", delay, err)
	s.debugf("connection lost, reconnecting in %s", delay)
	if notice && s.cfg.Notifier != nil {
		s.cfg.Notifier.Deliver("kick-notifier", fmt.Sprintf("connection to %s failed, retrying", s.cfg.Channel))
	}
}

func (s *Service) reconnectFire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}
	s.reconnect = nil
	s.mu.Unlock()

	s.connect(gen)
}

// closeSessionLocked cancels the heartbeat before anything else, closes the
// socket and clears the connected flag. Idempotent.
func (s *Service) closeSessionLocked() {
	if s.hb != nil {
		s.hb.stop()
		s.hb = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	s.live = false
	s.viewers = 0
}

func (s *Service) cancelReconnectLocked() {
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
}

func (s *Service) alive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen && s.running
}

func (s *Service) debugf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	logs.Info(line)
	if s.cfg.OnDebugLog != nil {
		s.cfg.OnDebugLog(line)
	}
}
