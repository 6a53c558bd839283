// Package wstransport adapts internal/wsconn to the realtime client's ports.
package wstransport

import (
	"context"

	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	"github.com/fd1az/nexus-dashboard/internal/config"
	"github.com/fd1az/nexus-dashboard/internal/wsconn"
)

// Ensure Dialer implements app.Dialer.
var _ app.Dialer = (*Dialer)(nil)

// Ensure *wsconn.Conn implements app.Conn.
var _ app.Conn = (*wsconn.Conn)(nil)

// Dialer opens coder/websocket connections for the realtime client.
type Dialer struct {
	dialer *wsconn.Dialer
}

// NewDialer creates a Dialer.
func NewDialer(cfg wsconn.Config) *Dialer {
	return &Dialer{dialer: wsconn.NewDialer(cfg)}
}

// ConfigFrom maps the application config onto transport settings.
func ConfigFrom(cfg *config.Config) wsconn.Config {
	wc := wsconn.DefaultConfig()
	if cfg.Realtime.DialTimeout > 0 {
		wc.DialTimeout = cfg.Realtime.DialTimeout
	}
	if cfg.Realtime.WriteTimeout > 0 {
		wc.WriteTimeout = cfg.Realtime.WriteTimeout
	}
	if cfg.Realtime.ReadLimit > 0 {
		wc.MaxMessageSize = cfg.Realtime.ReadLimit
	}
	return wc
}

// Dial implements app.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (app.Conn, error) {
	conn, err := d.dialer.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
