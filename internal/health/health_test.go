package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fd1az/nexus-dashboard/internal/logger"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(0, "test", logger.New(io.Discard, logger.LevelError, "test", nil))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHealth_AllHealthy(t *testing.T) {
	s, ts := newTestServer(t)
	s.RegisterCheck("realtime", func(ctx context.Context) (bool, string) { return true, "open" })

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if !status.Checks["realtime"].Healthy {
		t.Error("expected realtime check to be healthy")
	}
}

func TestHealth_Degraded(t *testing.T) {
	s, ts := newTestServer(t)
	s.RegisterCheck("realtime", func(ctx context.Context) (bool, string) { return false, "reconnecting" })

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var status Status
	json.NewDecoder(resp.Body).Decode(&status)
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Checks["realtime"].Message != "reconnecting" {
		t.Errorf("message = %q", status.Checks["realtime"].Message)
	}
}

func TestReady_ReportsFailingCheck(t *testing.T) {
	s, ts := newTestServer(t)
	s.RegisterCheck("fallback", func(ctx context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("realtime", func(ctx context.Context) (bool, string) { return false, "idle" })

	resp, err := http.Get(ts.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if !strings.Contains(string(body), "realtime") {
		t.Errorf("body = %q, want failing check name", body)
	}
}

func TestLive(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/live")
	if err != nil {
		t.Fatalf("GET /live: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
