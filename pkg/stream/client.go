// Package stream provides a reconnecting WebSocket reader for consuming a
// scanner's push feed.
package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/pkg/backoff"
)

const defaultDialTimeout = 10 * time.Second

// Config holds stream client configuration.
type Config struct {
	URL         string
	DialTimeout time.Duration
	Backoff     backoff.Config

	// OnMessage is invoked for every text message received. It runs on
	// the read loop; long handlers delay subsequent reads.
	OnMessage func(data []byte)

	Logger *zap.Logger
}

// Client maintains a WebSocket connection to a feed URL, redialing with
// backoff whenever the connection drops.
type Client struct {
	url         string
	dialTimeout time.Duration
	policy      *backoff.Policy
	onMessage   func([]byte)
	logger      *zap.Logger
	connected   atomic.Bool
}

// New creates a stream client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	if cfg.OnMessage == nil {
		return nil, fmt.Errorf("message handler is required")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	bcfg := cfg.Backoff
	if bcfg.InitialDelay <= 0 {
		bcfg = backoff.DefaultConfig()
	}

	return &Client{
		url:         cfg.URL,
		dialTimeout: dialTimeout,
		policy:      backoff.New(bcfg),
		onMessage:   cfg.OnMessage,
		logger:      cfg.Logger.With(zap.String("component", "stream-client")),
	}, nil
}

// Run dials and reads until the context is cancelled. Every disconnect is
// followed by a backoff sleep and a redial; a successful connection resets
// the backoff.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.readOnce(ctx); err != nil {
			c.logger.Warn("stream-disconnected",
				zap.String("url", c.url),
				zap.Int("attempts", c.policy.Attempts()),
				zap.Error(err))
		}

		if err := c.policy.Sleep(ctx); err != nil {
			return err
		}
	}
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// readOnce dials the feed and pumps messages until the connection fails.
func (c *Client) readOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", c.url, resp.StatusCode, err)
		}

		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	defer conn.Close()

	c.connected.Store(true)
	defer c.connected.Store(false)

	c.policy.Reset()
	c.logger.Info("stream-connected", zap.String("url", c.url))

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("read: %w", err)
		}

		if msgType != websocket.TextMessage {
			continue
		}

		c.onMessage(data)
	}
}
