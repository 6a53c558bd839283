package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/internal/apm"
	"github.com/fd1az/nexus-dashboard/internal/apperror"
	"github.com/fd1az/nexus-dashboard/internal/config"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/wsconn"
)

const (
	tracerName = "github.com/fd1az/nexus-dashboard/business/realtime/app"
	meterName  = "github.com/fd1az/nexus-dashboard/business/realtime/app"

	closeReason = "Client disconnecting"
)

// Config holds the client's tuning knobs.
type Config struct {
	URL                  string
	PingInterval         time.Duration // 0 disables the heartbeat
	PongTimeout          time.Duration
	MaxReconnectAttempts int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	DedupWindow          time.Duration
	WaitPollInterval     time.Duration
}

// DefaultConfig returns the node's stock settings.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		PingInterval:         30 * time.Second,
		PongTimeout:          10 * time.Second,
		MaxReconnectAttempts: 5,
		InitialBackoff:       time.Second,
		MaxBackoff:           10 * time.Second,
		DedupWindow:          5 * time.Second,
		WaitPollInterval:     100 * time.Millisecond,
	}
}

// FromConfig maps the application config onto Config.
func FromConfig(cfg *config.Config) Config {
	rt := cfg.Realtime
	return Config{
		URL:                  cfg.Node.WebSocketURL,
		PingInterval:         rt.PingInterval,
		PongTimeout:          rt.PongTimeout,
		MaxReconnectAttempts: rt.MaxReconnectAttempts,
		InitialBackoff:       rt.InitialBackoff,
		MaxBackoff:           rt.MaxBackoff,
		DedupWindow:          rt.DedupWindow,
		WaitPollInterval:     rt.WaitPollInterval,
	}
}

// backoff returns the delay before retry number attempts+1.
func (c Config) backoff(attempts int) time.Duration {
	d := c.InitialBackoff
	for i := 0; i < attempts && d < c.MaxBackoff; i++ {
		d *= 2
	}
	if d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the system clock. Tests pass *mclock.Simulated.
func WithClock(clock mclock.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithSink routes domain events to sink.
func WithSink(sink DomainEventSink) Option {
	return func(c *Client) { c.sink = sink }
}

// WithNotifier routes user notifications to n.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// OnStateChange registers fn to be called after every state transition.
func OnStateChange(fn func(from, to domain.ConnectionState)) Option {
	return func(c *Client) { c.stateListeners = append(c.stateListeners, fn) }
}

type clientMetrics struct {
	framesReceived    metric.Int64Counter
	parseErrors       metric.Int64Counter
	unknownEvents     metric.Int64Counter
	messagesSent      metric.Int64Counter
	dedupedSends      metric.Int64Counter
	queuedSends       metric.Int64Counter
	reconnectAttempts metric.Int64Counter
	heartbeatTimeouts metric.Int64Counter
	connectionState   metric.Int64Gauge
}

// session is one transport connection and the goroutines serving it.
type session struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
	conn   Conn // nil while dialing
	opened bool

	outbox [][]byte
	wake   chan struct{}
}

// timerRef identifies a scheduled callback. A callback whose ref is no
// longer the current one for its slot does nothing.
type timerRef struct {
	t mclock.Timer
}

func (r *timerRef) stop() {
	if r != nil && r.t != nil {
		r.t.Stop()
	}
}

type waiter struct {
	fn    func()
	timer *timerRef
}

// Client keeps one reconnecting WebSocket connection to a node.
type Client struct {
	cfg      Config
	dialer   Dialer
	logger   logger.LoggerInterface
	clock    mclock.Clock
	sink     DomainEventSink
	notifier Notifier
	registry *registry

	// wall time at clockBase, so clock readings map to timestamps.
	wallBase  time.Time
	clockBase mclock.AbsTime

	stateListeners []func(from, to domain.ConnectionState)

	tracer  apm.Tracer
	metrics *clientMetrics

	mu                 sync.Mutex
	state              domain.ConnectionState
	sess               *session
	nextSession        uint64
	intentional        bool
	attempts           int
	hasConnectedBefore bool
	exhausted          bool
	lastPing           time.Time
	lastErr            error
	queue              [][]byte
	sent               map[string]mclock.AbsTime

	reconnectTimer *timerRef
	pingTimer      *timerRef
	pongTimer      *timerRef
	waiters        map[*waiter]struct{}

	// effects run in order after mu is released.
	effects []func()
}

// New creates a client. It does not connect.
func New(cfg Config, dialer Dialer, log logger.LoggerInterface, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		dialer:   dialer,
		logger:   log,
		clock:    mclock.System{},
		registry: newRegistry(),
		tracer:   apm.NewTracer(tracerName),
		state:    domain.StateIdle,
		sent:     make(map[string]mclock.AbsTime),
		waiters:  make(map[*waiter]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.wallBase = time.Now()
	c.clockBase = c.clock.Now()

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.framesReceived, err = meter.Int64Counter(
		"realtime_frames_received_total",
		metric.WithDescription("Inbound frames by event type"),
		metric.WithUnit("{frame}"),
	)
	if err != nil {
		return err
	}

	c.metrics.parseErrors, err = meter.Int64Counter(
		"realtime_parse_errors_total",
		metric.WithDescription("Inbound frames dropped as malformed"),
		metric.WithUnit("{frame}"),
	)
	if err != nil {
		return err
	}

	c.metrics.unknownEvents, err = meter.Int64Counter(
		"realtime_unknown_events_total",
		metric.WithDescription("Inbound frames with an unrecognized type"),
		metric.WithUnit("{frame}"),
	)
	if err != nil {
		return err
	}

	c.metrics.messagesSent, err = meter.Int64Counter(
		"realtime_messages_sent_total",
		metric.WithDescription("Outbound frames written to the transport"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	c.metrics.dedupedSends, err = meter.Int64Counter(
		"realtime_deduplicated_sends_total",
		metric.WithDescription("Sends suppressed as duplicates"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	c.metrics.queuedSends, err = meter.Int64Counter(
		"realtime_queued_sends_total",
		metric.WithDescription("Sends queued while not connected"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	c.metrics.reconnectAttempts, err = meter.Int64Counter(
		"realtime_reconnect_attempts_total",
		metric.WithDescription("Scheduled reconnection attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	c.metrics.heartbeatTimeouts, err = meter.Int64Counter(
		"realtime_heartbeat_timeouts_total",
		metric.WithDescription("Connections dropped for a missing PONG"),
		metric.WithUnit("{timeout}"),
	)
	if err != nil {
		return err
	}

	c.metrics.connectionState, err = meter.Int64Gauge(
		"realtime_connection_state",
		metric.WithDescription("Connection state (0=idle, 1=connecting, 2=open, 3=closing, 4=closed, 5=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// URL returns the endpoint the client connects to.
func (c *Client) URL() string {
	return c.cfg.URL
}

// Connect starts connecting in the background. It is a no-op while a
// connection is open or being established. An invalid URL is returned and
// leaves the client idle.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == domain.StateOpen || c.state == domain.StateConnecting {
		return nil
	}

	if err := wsconn.ValidateURL(c.cfg.URL); err != nil {
		c.lastErr = err
		c.logger.Error(context.Background(), "cannot create websocket connection",
			"url", c.cfg.URL, "error", err)
		c.notifyLocked(Notification{
			ID:      "ws-error",
			Level:   LevelError,
			Message: "Invalid node WebSocket URL",
		})
		return err
	}

	c.intentional = false
	c.exhausted = false
	c.cancelTimerLocked(&c.reconnectTimer)
	c.dialLocked()
	return nil
}

// Disconnect closes the connection on purpose. Pending reconnects and
// heartbeats are cancelled and no reconnection follows. Queued sends are
// kept for the next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.unlock()

	c.intentional = true
	c.cancelTimerLocked(&c.reconnectTimer)
	c.stopHeartbeatLocked()

	if c.sess != nil {
		if c.sess.conn != nil {
			c.setStateLocked(domain.StateClosing)
		}
		c.teardownLocked(true)
		c.setStateLocked(domain.StateClosed)
	}

	c.attempts = 0
	c.exhausted = false
	c.setStateLocked(domain.StateIdle)
}

// Reconnect drops the current connection, if any, resets the attempt
// counter and connects immediately.
func (c *Client) Reconnect() {
	c.mu.Lock()
	defer c.unlock()

	if err := wsconn.ValidateURL(c.cfg.URL); err != nil {
		c.lastErr = err
		c.logger.Error(context.Background(), "cannot create websocket connection",
			"url", c.cfg.URL, "error", err)
		return
	}

	c.logger.Info(context.Background(), "manual reconnect requested", "url", c.cfg.URL)

	c.intentional = false
	c.exhausted = false
	c.attempts = 0
	c.cancelTimerLocked(&c.reconnectTimer)
	c.stopHeartbeatLocked()
	if c.sess != nil {
		c.teardownLocked(false)
		c.setStateLocked(domain.StateClosed)
	}
	c.dialLocked()
}

// Close disconnects and drops pending WaitForConnection callbacks.
func (c *Client) Close() {
	c.Disconnect()

	c.mu.Lock()
	for w := range c.waiters {
		w.timer.stop()
		delete(c.waiters, w)
	}
	c.mu.Unlock()
}

// SendMessage encodes msg and sends it, or queues it until the connection
// opens. A payload identical to one sent within the de-duplication window is
// dropped. Only encoding errors are returned.
func (c *Client) SendMessage(msg domain.OutboundMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		c.logger.Error(context.Background(), "failed to encode outbound message",
			"type", msg.Type, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.unlock()

	if c.state == domain.StateOpen {
		c.sendLocked(payload, true)
		return nil
	}

	c.queue = append(c.queue, payload)
	c.metrics.queuedSends.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("type", string(msg.Type))))
	c.logger.Debug(context.Background(), "connection not open, message queued",
		"type", msg.Type, "queued", len(c.queue))
	return nil
}

// Subscribe registers fn for topic. If a payload for topic was already
// received, fn is called with it before Subscribe returns. The returned
// function removes this registration only.
func (c *Client) Subscribe(topic domain.Topic, fn Handler) (unsubscribe func()) {
	return c.registry.subscribe(topic, fn)
}

// SubscribeJSON is Subscribe with the payload decoded into T. Payloads that
// do not decode are logged and skipped.
func SubscribeJSON[T any](c *Client, topic domain.Topic, fn func(T)) (unsubscribe func()) {
	return c.Subscribe(topic, func(payload json.RawMessage) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			c.logger.Warn(context.Background(), "failed to decode topic payload",
				"topic", topic, "error", err)
			return
		}
		fn(v)
	})
}

// PublishSnapshot stores payload as the latest value of topic and notifies
// its subscribers, as if the server had pushed it.
func (c *Client) PublishSnapshot(topic domain.Topic, payload json.RawMessage) {
	c.registry.publish(topic, payload)
}

// Snapshot returns the cached payload of topic.
func (c *Client) Snapshot(topic domain.Topic) (json.RawMessage, bool) {
	return c.registry.cached(topic)
}

// WaitForConnection calls fn once the connection is open. If it already is,
// fn runs before WaitForConnection returns; otherwise the state is polled
// and fn runs on the clock's goroutine. cancel drops a pending callback.
func (c *Client) WaitForConnection(fn func()) (cancel func()) {
	c.mu.Lock()
	if c.state == domain.StateOpen {
		c.mu.Unlock()
		fn()
		return func() {}
	}

	w := &waiter{fn: fn}
	c.waiters[w] = struct{}{}
	c.scheduleWaiterLocked(w)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.waiters[w]; ok {
			w.timer.stop()
			delete(c.waiters, w)
		}
	}
}

func (c *Client) scheduleWaiterLocked(w *waiter) {
	ref := &timerRef{}
	ref.t = c.clock.AfterFunc(c.cfg.WaitPollInterval, func() { c.pollWaiter(w, ref) })
	w.timer = ref
}

func (c *Client) pollWaiter(w *waiter, ref *timerRef) {
	c.mu.Lock()
	if _, ok := c.waiters[w]; !ok || w.timer != ref {
		c.mu.Unlock()
		return
	}
	if c.state != domain.StateOpen {
		c.scheduleWaiterLocked(w)
		c.mu.Unlock()
		return
	}
	delete(c.waiters, w)
	c.mu.Unlock()

	w.fn()
}

// IsConnected reports whether the connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == domain.StateOpen
}

// ConnectionStatus returns a snapshot of the connection status.
func (c *Client) ConnectionStatus() domain.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// DetailedStatus returns ConnectionStatus plus diagnostics.
func (c *Client) DetailedStatus() domain.DetailedStatus {
	c.mu.Lock()
	ds := domain.DetailedStatus{
		ConnectionStatus: c.statusLocked(),
		State:            c.state,
		URL:              c.cfg.URL,
		Reconnecting:     c.state == domain.StateReconnecting,
		Exhausted:        c.exhausted,
		QueuedSends:      len(c.queue),
	}
	if c.lastErr != nil {
		ds.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	ds.Subscriptions = c.registry.count()
	return ds
}

func (c *Client) statusLocked() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		IsConnected:        c.state == domain.StateOpen,
		HasConnectedBefore: c.hasConnectedBefore,
		ReconnectAttempts:  c.attempts,
		LastPing:           c.lastPing,
	}
}

// unlock releases mu and runs the effects queued while it was held.
func (c *Client) unlock() {
	effects := c.effects
	c.effects = nil
	c.mu.Unlock()

	for _, fn := range effects {
		fn()
	}
}

func (c *Client) setStateLocked(to domain.ConnectionState) {
	from := c.state
	if from == to {
		return
	}
	if !domain.CanTransition(from, to) {
		c.logger.Warn(context.Background(), "unexpected connection state transition",
			"from", from.String(), "to", to.String())
	}
	c.state = to
	c.metrics.connectionState.Record(context.Background(), int64(to))

	for _, fn := range c.stateListeners {
		c.effects = append(c.effects, func() { fn(from, to) })
	}
}

func (c *Client) notifyLocked(n Notification) {
	if c.notifier == nil {
		return
	}
	notifier := c.notifier
	c.effects = append(c.effects, func() { notifier.Notify(context.Background(), n) })
}

func (c *Client) scheduleLocked(d time.Duration, fn func(ref *timerRef)) *timerRef {
	ref := &timerRef{}
	ref.t = c.clock.AfterFunc(d, func() { fn(ref) })
	return ref
}

// now returns the wall time corresponding to the client clock.
func (c *Client) now() time.Time {
	return c.wallBase.Add(time.Duration(c.clock.Now() - c.clockBase))
}

func (c *Client) cancelTimerLocked(slot **timerRef) {
	(*slot).stop()
	*slot = nil
}

// dialLocked starts a new session in the Connecting state.
func (c *Client) dialLocked() {
	c.nextSession++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     c.nextSession,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
	c.sess = s
	c.setStateLocked(domain.StateConnecting)

	c.logger.Info(ctx, "connecting to node", "url", c.cfg.URL,
		"session", s.id, "attempt", c.attempts)

	go c.dial(s, c.attempts)
}

func (c *Client) dial(s *session, attempt int) {
	ctx, span := c.tracer.Start(s.ctx, "realtime.dial",
		attribute.String("url", c.cfg.URL),
		attribute.Int("attempt", attempt),
		attribute.Int64("session", int64(s.id)),
	)
	defer span.End()

	conn, err := c.dialer.Dial(ctx, c.cfg.URL)
	span.NoticeError(err)

	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		span.AddEvent("dial superseded")
		if conn != nil {
			conn.Abort()
		}
		return
	}

	if err != nil {
		c.logger.Warn(ctx, "websocket connection failed", "url", c.cfg.URL,
			"attempt", attempt, "error", err)
		c.lostLocked(err)
		c.unlock()
		return
	}

	s.conn = conn
	c.openedLocked(s)
	c.unlock()

	go c.readLoop(s)
	go c.writeLoop(s)
}

func (c *Client) openedLocked(s *session) {
	s.opened = true
	c.attempts = 0
	c.exhausted = false
	c.lastErr = nil
	c.setStateLocked(domain.StateOpen)

	c.logger.Info(s.ctx, "connected to node", "url", c.cfg.URL, "session", s.id)

	if c.hasConnectedBefore {
		c.notifyLocked(Notification{
			ID:      "ws-reconnected",
			Level:   LevelSuccess,
			Message: "Reconnected to blockchain network",
		})
	} else {
		c.notifyLocked(Notification{
			ID:      "ws-connected",
			Level:   LevelSuccess,
			Message: "Connected to blockchain network",
		})
	}
	c.hasConnectedBefore = true

	c.startHeartbeatLocked()

	queued := c.queue
	c.queue = nil
	for _, payload := range queued {
		c.sendLocked(payload, true)
	}
	if len(queued) > 0 {
		c.logger.Debug(s.ctx, "flushed queued messages", "count", len(queued))
	}
}

// lostLocked handles the end of the current session, whether the dial failed
// or an open connection dropped.
func (c *Client) lostLocked(cause error) {
	s := c.sess
	wasOpen := s != nil && s.opened

	c.lastErr = cause
	c.stopHeartbeatLocked()
	c.teardownLocked(false)
	c.setStateLocked(domain.StateClosed)

	if c.intentional {
		c.setStateLocked(domain.StateIdle)
		return
	}

	if wasOpen {
		c.logger.Warn(context.Background(), "connection to node lost",
			"url", c.cfg.URL, "error", cause)
		c.notifyLocked(Notification{
			ID:      "ws-disconnected",
			Level:   LevelWarning,
			Message: "Connection to blockchain network lost",
		})
	}

	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.exhausted = true
		c.setStateLocked(domain.StateIdle)
		c.logger.Error(context.Background(), "giving up on node connection",
			"url", c.cfg.URL, "attempts", c.attempts,
			"error", apperror.New(apperror.CodeReconnectExhausted, apperror.WithCause(cause)))
		if c.hasConnectedBefore {
			c.notifyLocked(Notification{
				ID:      "ws-error",
				Level:   LevelError,
				Message: "Unable to reach blockchain network",
			})
		}
		return
	}

	delay := c.cfg.backoff(c.attempts)
	c.attempts++
	c.setStateLocked(domain.StateReconnecting)
	c.reconnectTimer = c.scheduleLocked(delay, c.onReconnectTimer)
	c.metrics.reconnectAttempts.Add(context.Background(), 1)

	c.logger.Info(context.Background(), "scheduling reconnect",
		"attempt", c.attempts, "max", c.cfg.MaxReconnectAttempts, "delay", delay)
}

func (c *Client) onReconnectTimer(ref *timerRef) {
	c.mu.Lock()
	defer c.unlock()

	if c.reconnectTimer != ref {
		return
	}
	c.reconnectTimer = nil
	if c.intentional || c.state != domain.StateReconnecting {
		return
	}
	c.dialLocked()
}

// teardownLocked detaches the current session. A graceful teardown sends a
// normal close frame; otherwise the transport is dropped.
func (c *Client) teardownLocked(graceful bool) {
	s := c.sess
	if s == nil {
		return
	}
	c.sess = nil

	conn := s.conn
	if conn == nil {
		s.cancel()
		return
	}
	if graceful {
		go func() {
			if err := conn.Close(wsconn.StatusNormalClosure, closeReason); err != nil {
				c.logger.Debug(context.Background(), "close handshake failed", "error", err)
			}
			s.cancel()
		}()
		return
	}
	s.cancel()
	go conn.Abort()
}

func (c *Client) startHeartbeatLocked() {
	if c.cfg.PingInterval <= 0 {
		return
	}
	c.pingTimer = c.scheduleLocked(c.cfg.PingInterval, c.onPingTimer)
}

func (c *Client) stopHeartbeatLocked() {
	c.cancelTimerLocked(&c.pingTimer)
	c.cancelTimerLocked(&c.pongTimer)
}

func (c *Client) onPingTimer(ref *timerRef) {
	c.mu.Lock()
	defer c.unlock()

	if c.pingTimer != ref || c.state != domain.StateOpen {
		return
	}

	// A PONG still outstanding at the next ping means the node is not
	// answering, whatever the pong timeout says.
	if c.pongTimer != nil {
		c.cancelTimerLocked(&c.pongTimer)
		c.heartbeatTimeoutLocked()
		return
	}

	payload, err := domain.Ping().Encode()
	if err != nil {
		c.logger.Error(context.Background(), "failed to encode ping", "error", err)
		return
	}

	c.sendLocked(payload, false)
	c.lastPing = c.now()

	c.pongTimer = c.scheduleLocked(c.cfg.PongTimeout, c.onPongTimeout)
	c.pingTimer = c.scheduleLocked(c.cfg.PingInterval, c.onPingTimer)
}

func (c *Client) onPongTimeout(ref *timerRef) {
	c.mu.Lock()
	defer c.unlock()

	if c.pongTimer != ref || c.state != domain.StateOpen {
		return
	}
	c.pongTimer = nil
	c.heartbeatTimeoutLocked()
}

func (c *Client) heartbeatTimeoutLocked() {
	c.metrics.heartbeatTimeouts.Add(context.Background(), 1)
	c.logger.Warn(context.Background(), "pong timeout, reconnecting",
		"timeout", c.cfg.PongTimeout)
	c.lostLocked(apperror.New(apperror.CodeHeartbeatTimeout,
		apperror.WithContext(fmt.Sprintf("no PONG within %s", c.cfg.PongTimeout))))
}

// sendLocked hands payload to the writer unless it duplicates a recent send.
func (c *Client) sendLocked(payload []byte, dedup bool) {
	s := c.sess
	if s == nil || s.conn == nil {
		return
	}

	if dedup && c.cfg.DedupWindow > 0 {
		now := c.clock.Now()
		for key, at := range c.sent {
			if now.Sub(at) >= c.cfg.DedupWindow {
				delete(c.sent, key)
			}
		}
		key := string(payload)
		if _, ok := c.sent[key]; ok {
			c.metrics.dedupedSends.Add(context.Background(), 1)
			c.logger.Debug(s.ctx, "duplicate message suppressed", "payload", key)
			return
		}
		c.sent[key] = now
	}

	s.outbox = append(s.outbox, payload)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (c *Client) writeLoop(s *session) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		c.mu.Lock()
		batch := s.outbox
		s.outbox = nil
		c.mu.Unlock()

		for _, payload := range batch {
			if err := s.conn.Write(s.ctx, payload); err != nil {
				c.connectionLost(s, err)
				return
			}
			c.metrics.messagesSent.Add(s.ctx, 1)
		}
	}
}

func (c *Client) readLoop(s *session) {
	for {
		frame, err := s.conn.Read(s.ctx)
		if err != nil {
			c.connectionLost(s, err)
			return
		}
		c.handleFrame(s, frame)
	}
}

func (c *Client) connectionLost(s *session, err error) {
	c.mu.Lock()
	defer c.unlock()

	if c.sess != s {
		return
	}
	c.lostLocked(err)
}

func (c *Client) current(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess == s
}

// handleFrame decodes one inbound frame and dispatches it.
func (c *Client) handleFrame(s *session, frame []byte) {
	ctx := s.ctx

	ev, err := domain.Decode(frame)
	if err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Warn(ctx, "dropping malformed frame", "error", err)
		return
	}
	c.metrics.framesReceived.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", string(ev.Type()))))

	if !c.current(s) {
		return
	}

	switch e := ev.(type) {
	case domain.Welcome:
		c.logger.Debug(ctx, "node greeting", "text", e.Text)

	case domain.Pong:
		c.mu.Lock()
		if c.sess == s {
			c.cancelTimerLocked(&c.pongTimer)
		}
		c.mu.Unlock()

	case domain.TopicPush:
		n := c.registry.publish(e.Topic, e.Payload)
		c.logger.Debug(ctx, "topic update", "topic", e.Topic, "subscribers", n)

	case domain.NewBlock, domain.NewTransaction, domain.ChainUpdate,
		domain.PeerConnected, domain.PeerDisconnected, domain.MiningStatus,
		domain.NetworkStats, domain.MempoolUpdate:
		c.applyDomainEvent(ctx, e.(domain.DomainEvent))

	case domain.Unknown:
		c.metrics.unknownEvents.Add(ctx, 1)
		c.logger.Info(ctx, "unknown message type", "type", e.Tag)

	default:
		c.logger.Warn(ctx, "unhandled event", "type", ev.Type())
	}
}

func (c *Client) applyDomainEvent(ctx context.Context, ev domain.DomainEvent) {
	if c.sink != nil {
		c.sink.Apply(ctx, ev)
	}
	if c.notifier == nil {
		return
	}

	switch e := ev.(type) {
	case domain.NewBlock:
		c.notifier.Notify(ctx, Notification{
			ID:      "block-" + e.Block.ShortHash(8),
			Level:   LevelInfo,
			Message: fmt.Sprintf("New block #%d mined", e.Block.Index),
		})
	case domain.PeerConnected:
		c.notifier.Notify(ctx, Notification{
			ID:      "peer-" + e.Peer.ShortID(8),
			Level:   LevelInfo,
			Message: "New peer connected",
		})
	}
}
