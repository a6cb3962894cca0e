// Package push reports metric samples from a worker to the master without
// blocking the caller.
package push

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mlbench-api-server/internal/cluster"
)

const metricsPath = "/api/v1/metrics"

type Config struct {
	Endpoint   string        `env:"MLBENCH_MASTER_ENDPOINT"`
	MasterPort string        `env:"MLBENCH_MASTER_PORT" envDefault:"80"`
	Buffer     int           `env:"MLBENCH_PUSH_BUFFER" envDefault:"256"`
	Timeout    time.Duration `env:"MLBENCH_PUSH_TIMEOUT" envDefault:"5s"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Buffer < 1 {
		return nil, fmt.Errorf("MLBENCH_PUSH_BUFFER must be positive, got %d", cfg.Buffer)
	}
	return cfg, nil
}

// Payload mirrors the body accepted by the metric ingest endpoint.
type Payload struct {
	PodName    string `json:"pod_name,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Value      string `json:"value"`
	Metadata   string `json:"metadata"`
	Cumulative bool   `json:"cumulative"`
}

type Client struct {
	cfg    Config
	source cluster.Source
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Payload
	done   chan struct{}

	discoverOnce sync.Once
	endpoint     string
	disabled     atomic.Bool
	dropped      atomic.Int64
}

// New starts the sender. source is only consulted when no endpoint is
// configured; with neither the client drops everything.
func New(cfg Config, source cluster.Source, logger *zap.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		source: source,
		logger: logger,
		queue:  make(chan Payload, cfg.Buffer),
		done:   make(chan struct{}),
	}
	go c.loop()
	return c
}

// Post enqueues p and reports whether it was accepted.
func (c *Client) Post(p Payload) bool {
	if c.disabled.Load() {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.queue <- p:
		return true
	default:
		c.dropped.Add(1)
		c.logger.Debug("push buffer full, dropping metric", zap.String("name", p.Name))
		return false
	}
}

func (c *Client) Disabled() bool {
	return c.disabled.Load()
}

func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting payloads and waits for the queued ones to be sent
// until ctx expires.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush metrics: %w", ctx.Err())
	}
}

func (c *Client) loop() {
	defer close(c.done)

	for p := range c.queue {
		endpoint := c.resolve()
		if endpoint == "" {
			c.dropped.Add(1)
			continue
		}
		if err := c.send(endpoint, p); err != nil {
			c.dropped.Add(1)
			c.logger.Warn("failed to push metric", zap.String("name", p.Name), zap.Error(err))
		}
	}
}

func (c *Client) resolve() string {
	c.discoverOnce.Do(func() {
		endpoint, err := c.discover()
		if err != nil {
			c.logger.Info("metric push disabled", zap.Error(err))
			c.disabled.Store(true)
			return
		}
		c.endpoint = endpoint
	})
	return c.endpoint
}

func (c *Client) discover() (string, error) {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint, nil
	}
	if c.source == nil {
		return "", fmt.Errorf("no master endpoint configured and not running in a cluster")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	pods, err := c.source.ListPods(ctx, cluster.MasterSelector())
	if err != nil {
		return "", err
	}
	for _, p := range pods {
		if p.IP != "" {
			return fmt.Sprintf("http://%s%s", net.JoinHostPort(p.IP, c.cfg.MasterPort), metricsPath), nil
		}
	}
	return "", fmt.Errorf("no master pod found for %s", cluster.MasterSelector())
}

func (c *Client) send(endpoint string, p Payload) error {
	agent := fiber.Post(endpoint).
		JSON(p).
		Timeout(c.cfg.Timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code != fiber.StatusCreated {
		return fmt.Errorf("master answered %d: %s", code, body)
	}
	return nil
}
