package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Node.WebSocketURL != "ws://localhost:8001/ws" {
		t.Errorf("ws_url = %q", cfg.Node.WebSocketURL)
	}
	if cfg.Realtime.PingInterval != 30*time.Second {
		t.Errorf("ping_interval = %v", cfg.Realtime.PingInterval)
	}
	if cfg.Realtime.PongTimeout != 10*time.Second {
		t.Errorf("pong_timeout = %v", cfg.Realtime.PongTimeout)
	}
	if cfg.Realtime.MaxReconnectAttempts != 5 {
		t.Errorf("max_reconnect_attempts = %d", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Realtime.InitialBackoff != time.Second || cfg.Realtime.MaxBackoff != 10*time.Second {
		t.Errorf("backoff = %v..%v", cfg.Realtime.InitialBackoff, cfg.Realtime.MaxBackoff)
	}
	if cfg.Realtime.DedupWindow != 5*time.Second {
		t.Errorf("dedup_window = %v", cfg.Realtime.DedupWindow)
	}
	if cfg.Realtime.WaitPollInterval != 100*time.Millisecond {
		t.Errorf("wait_poll_interval = %v", cfg.Realtime.WaitPollInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEXUS_WS_URL", "wss://node.example:9000/ws")
	t.Setenv("NEXUS_MAX_RECONNECT_ATTEMPTS", "8")
	t.Setenv("NEXUS_PING_INTERVAL", "15s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.WebSocketURL != "wss://node.example:9000/ws" {
		t.Errorf("ws_url = %q", cfg.Node.WebSocketURL)
	}
	if cfg.Realtime.MaxReconnectAttempts != 8 {
		t.Errorf("max_reconnect_attempts = %d", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Realtime.PingInterval != 15*time.Second {
		t.Errorf("ping_interval = %v", cfg.Realtime.PingInterval)
	}
}

func TestLoad_RejectsZeroWaitPollInterval(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEXUS_REALTIME_WAIT_POLL_INTERVAL", "0s")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "wait_poll_interval") {
		t.Fatalf("Load err = %v, want wait_poll_interval error", err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nexus.yaml")
	content := `
node:
  ws_url: ws://10.0.0.5:8001/ws
  api_url: http://10.0.0.5:8001
realtime:
  pong_timeout: 3s
fallback:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.WebSocketURL != "ws://10.0.0.5:8001/ws" {
		t.Errorf("ws_url = %q", cfg.Node.WebSocketURL)
	}
	if cfg.Realtime.PongTimeout != 3*time.Second {
		t.Errorf("pong_timeout = %v", cfg.Realtime.PongTimeout)
	}
	if cfg.Fallback.Enabled {
		t.Error("fallback should be disabled by file")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing ws url", func(c *Config) { c.Node.WebSocketURL = "" }, "node.ws_url is required"},
		{"http scheme for ws", func(c *Config) { c.Node.WebSocketURL = "http://localhost:8001/ws" }, "scheme"},
		{"no host", func(c *Config) { c.Node.WebSocketURL = "ws://" }, "invalid node.ws_url"},
		{"bad api url with fallback", func(c *Config) { c.Node.APIURL = "ftp://x" }, "node.api_url"},
		{"bad api url without fallback", func(c *Config) { c.Node.APIURL = "ftp://x"; c.Fallback.Enabled = false }, ""},
		{"negative attempts", func(c *Config) { c.Realtime.MaxReconnectAttempts = -1 }, "max_reconnect_attempts"},
		{"inverted backoff", func(c *Config) { c.Realtime.MaxBackoff = time.Millisecond }, "backoff"},
		{"pong timeout equals ping interval", func(c *Config) {
			c.Realtime.PingInterval = 10 * time.Second
			c.Realtime.PongTimeout = 10 * time.Second
		}, "must be shorter than realtime.ping_interval"},
		{"pong timeout exceeds ping interval", func(c *Config) {
			c.Realtime.PingInterval = 5 * time.Second
			c.Realtime.PongTimeout = 10 * time.Second
		}, "pong_timeout"},
		{"zero wait poll interval", func(c *Config) { c.Realtime.WaitPollInterval = 0 }, "wait_poll_interval"},
		{"zero dial timeout", func(c *Config) { c.Realtime.DialTimeout = 0 }, "dial_timeout"},
		{"negative write timeout", func(c *Config) { c.Realtime.WriteTimeout = -time.Second }, "write_timeout"},
		{"zero read limit", func(c *Config) { c.Realtime.ReadLimit = 0 }, "read_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
