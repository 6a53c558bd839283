// Package wsconn dials WebSocket connections with github.com/coder/websocket
// and exposes them as plain frame readers and writers.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

// Normal closure, sent on intentional disconnects.
const StatusNormalClosure = int(websocket.StatusNormalClosure)

// Config holds dial and per-connection settings.
type Config struct {
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	Header         http.Header
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// Dialer opens connections.
type Dialer struct {
	config Config
}

// NewDialer creates a Dialer.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{config: cfg}
}

// ValidateURL checks that raw is an absolute ws:// or wss:// URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketInvalidURL, apperror.WithCause(err), apperror.WithContext(raw))
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return apperror.New(apperror.CodeWebSocketInvalidURL,
			apperror.WithMessage(fmt.Sprintf("unsupported scheme %q", u.Scheme)), apperror.WithContext(raw))
	}
	if u.Host == "" {
		return apperror.New(apperror.CodeWebSocketInvalidURL, apperror.WithMessage("missing host"), apperror.WithContext(raw))
	}
	return nil
}

// Dial opens a connection to rawURL.
func (d *Dialer) Dial(ctx context.Context, rawURL string) (*Conn, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	if d.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.DialTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{
		HTTPHeader: d.config.Header,
	})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeWebSocketConnectionError, apperror.WithCause(err), apperror.WithContext(rawURL))
	}

	if d.config.MaxMessageSize > 0 {
		conn.SetReadLimit(d.config.MaxMessageSize)
	}

	return &Conn{conn: conn, writeTimeout: d.config.WriteTimeout}, nil
}

// Conn is one open WebSocket connection. Read must not be called
// concurrently with itself; Write and Close are safe from any goroutine.
type Conn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// Read blocks for the next data frame. Any error means the connection is
// unusable; a peer close is reported as CodeWebSocketClosed with the close
// code in the context.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		if status := websocket.CloseStatus(err); status != -1 {
			return nil, apperror.New(apperror.CodeWebSocketClosed, apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("code=%d", int(status))))
		}
		return nil, apperror.New(apperror.CodeWebSocketReadError, apperror.WithCause(err))
	}
	return data, nil
}

// Write sends one text frame.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err))
	}
	return nil
}

// Close performs the closing handshake with code and reason. It is
// idempotent and may block for the handshake; callers that cannot wait run
// it in a goroutine.
func (c *Conn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		err := c.conn.Close(websocket.StatusCode(code), reason)
		if err != nil && !isAlreadyClosed(err) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// Abort tears the connection down without a handshake.
func (c *Conn) Abort() {
	c.closeOnce.Do(func() {
		c.conn.CloseNow()
	})
}

func isAlreadyClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) != -1
}
