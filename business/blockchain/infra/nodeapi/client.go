// Package nodeapi reads chain state from the node's REST API. It backs the
// snapshot fallback used while the WebSocket is down.
package nodeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/nexus-dashboard/business/blockchain/app"
	"github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	"github.com/fd1az/nexus-dashboard/internal/apm"
	"github.com/fd1az/nexus-dashboard/internal/apperror"
	"github.com/fd1az/nexus-dashboard/internal/circuitbreaker"
	"github.com/fd1az/nexus-dashboard/internal/httpclient"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/nexus-dashboard/business/blockchain/infra/nodeapi"

	networkStatsEndpoint = "/network-stats"
	nodeStatusEndpoint   = "/node/status"

	defaultTimeout = 5 * time.Second
)

// Ensure Client implements app.SnapshotSource.
var _ app.SnapshotSource = (*Client)(nil)

// Config holds configuration for the node API client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Timeout:           defaultTimeout,
		RequestsPerMinute: 30,
	}
}

// NetworkStatsResponse is the body of GET /network-stats.
type NetworkStatsResponse struct {
	Blocks              uint64 `json:"blocks"`
	PendingTransactions int    `json:"pending_transactions"`
	IsMining            bool   `json:"is_mining"`
	Difficulty          uint64 `json:"difficulty"`
}

// Snapshot converts the response to the BLOCKCHAIN_STATE shape. The REST
// API does not return the last block.
func (r NetworkStatsResponse) Snapshot() domain.ChainSnapshot {
	return domain.ChainSnapshot{
		ChainLength: r.Blocks,
		Difficulty:  r.Difficulty,
		Mempool:     r.PendingTransactions,
		IsMining:    r.IsMining,
	}
}

// NodeStatusResponse is the body of GET /node/status.
type NodeStatusResponse struct {
	Peers   int `json:"peers"`
	Blocks  int `json:"blocks"`
	Mempool int `json:"mempool"`
}

// Client calls the node REST API through a rate limiter and circuit breaker.
type Client struct {
	client  httpclient.Client
	config  Config
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	limiter *ratelimit.Limiter

	snapshotCB *circuitbreaker.CircuitBreaker[domain.ChainSnapshot]
	statusCB   *circuitbreaker.CircuitBreaker[domain.NetworkStats]
}

// New creates a node API client.
func New(cfg Config, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	base := []httpclient.ClientOption{
		httpclient.WithProviderName("nexus-node"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(otel.Tracer(tracerName), false),
	}
	client, err := httpclient.NewInstrumentedClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &Client{
		client:  client,
		config:  cfg,
		logger:  log,
		tracer:  apm.NewTracer(tracerName),
		limiter: ratelimit.New(rpm),
	}

	onChange := func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	snapCfg := circuitbreaker.DefaultConfig("node-network-stats")
	snapCfg.OnStateChange = onChange
	c.snapshotCB = circuitbreaker.New[domain.ChainSnapshot](snapCfg)

	statusCfg := circuitbreaker.DefaultConfig("node-status")
	statusCfg.OnStateChange = onChange
	c.statusCB = circuitbreaker.New[domain.NetworkStats](statusCfg)

	return c, nil
}

// FetchSnapshot reads GET /network-stats.
func (c *Client) FetchSnapshot(ctx context.Context) (domain.ChainSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "nodeapi.fetch_snapshot",
		attribute.String("endpoint", networkStatsEndpoint))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.NoticeError(err)
		return domain.ChainSnapshot{}, err
	}

	snap, err := c.snapshotCB.Execute(func() (domain.ChainSnapshot, error) {
		var result NetworkStatsResponse
		if err := c.get(ctx, networkStatsEndpoint, "network-stats", &result); err != nil {
			return domain.ChainSnapshot{}, err
		}
		return result.Snapshot(), nil
	})
	if err != nil {
		span.NoticeError(err)
		return domain.ChainSnapshot{}, err
	}

	span.SetAttributes(
		attribute.Int64("chain_length", int64(snap.ChainLength)),
		attribute.Int("mempool", snap.Mempool),
	)
	return snap, nil
}

// FetchNetworkStats reads GET /node/status.
func (c *Client) FetchNetworkStats(ctx context.Context) (domain.NetworkStats, error) {
	ctx, span := c.tracer.Start(ctx, "nodeapi.fetch_network_stats",
		attribute.String("endpoint", nodeStatusEndpoint))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.NoticeError(err)
		return domain.NetworkStats{}, err
	}

	stats, err := c.statusCB.Execute(func() (domain.NetworkStats, error) {
		var result NodeStatusResponse
		if err := c.get(ctx, nodeStatusEndpoint, "node-status", &result); err != nil {
			return domain.NetworkStats{}, err
		}
		return domain.NetworkStats{
			Peers:   result.Peers,
			Blocks:  result.Blocks,
			Mempool: result.Mempool,
		}, nil
	})
	if err != nil {
		span.NoticeError(err)
		return domain.NetworkStats{}, err
	}
	span.SetAttributes(attribute.Int("peers", stats.Peers))
	return stats, nil
}

func (c *Client) get(ctx context.Context, path, label string, result any) error {
	_, err := c.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", label)),
		httpclient.WithResponseErrorHandler(nodeErrorHandler),
	).
		SetResult(result).
		Get(ctx, path)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeSnapshotFetchFailed, c.config.BaseURL+path)
	}

	c.logger.Debug(ctx, "fetched node state via HTTP", "endpoint", path)
	return nil
}

// nodeErrorHandler maps non-2xx responses. The node answers errors with a
// plain string or {"error": "..."}.
func nodeErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	code := apperror.CodeNodeAPIError
	if statusCode >= 500 {
		code = apperror.CodeNodeConnectionFailed
	}
	return apperror.New(code, apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, msg)))
}
