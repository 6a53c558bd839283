package nodeapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/nodesim"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "nodeapi-test", nil)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig(baseURL)
	cfg.RequestsPerMinute = 6000
	c, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_FetchFromSimulatedNode(t *testing.T) {
	node := nodesim.New(nodesim.DefaultConfig(), testLogger())
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()

	ctx := context.Background()
	node.SubmitTransaction(ctx, "alice", "bob", decimal.NewFromInt(3))
	node.MineBlock(ctx)
	node.SubmitTransaction(ctx, "bob", "carol", decimal.NewFromInt(1))
	node.ConnectPeer(ctx, "peer-1", "10.0.0.2:8001")

	c := newTestClient(t, srv.URL)

	snap, err := c.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if snap.ChainLength != 2 || snap.Mempool != 1 || snap.Difficulty != 4 || snap.LastBlock != nil {
		t.Errorf("snapshot = %+v", snap)
	}

	stats, err := c.FetchNetworkStats(ctx)
	if err != nil {
		t.Fatalf("FetchNetworkStats() error = %v", err)
	}
	if stats.Peers != 1 || stats.Blocks != 2 || stats.Mempool != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClient_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperror.Code
	}{
		{"server error", http.StatusInternalServerError, `{"error":"db locked"}`, apperror.CodeNodeConnectionFailed},
		{"client error", http.StatusNotFound, "not found", apperror.CodeNodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).FetchSnapshot(context.Background())
			if !apperror.HasCode(err, tt.want) {
				t.Errorf("error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchSnapshot(context.Background())
	if !apperror.HasCode(err, apperror.CodeSnapshotFetchFailed) {
		t.Errorf("error = %v, want snapshot fetch failure", err)
	}
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.FetchSnapshot(ctx); err == nil {
			t.Fatalf("call %d succeeded", i)
		}
	}

	_, err := c.FetchSnapshot(ctx)
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("error = %v, want circuit open", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}
