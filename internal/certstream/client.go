package certstream

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/certfisk/certfisk/internal/metrics"
)

// DefaultStreamURL is the public certstream aggregation endpoint.
const DefaultStreamURL = "wss://certstream.calidog.io"

// Client connection tuning.
const (
	DefaultDialTimeout = 15 * time.Second
	// Reconnect backoff: jittered exponential, reset after a healthy read.
	DefaultBackoffBase   = 1 * time.Second
	DefaultBackoffMax    = 60 * time.Second
	backoffJitterCeiling = 500 * time.Millisecond
)

// Config holds websocket client parameters. A zero-value field falls back to
// its default.
type Config struct {
	URL         string
	DialTimeout time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Buffer is the capacity of the outbound message channel.
	Buffer int
}

// DefaultConfig returns client settings suitable for the public endpoint.
func DefaultConfig() *Config {
	return &Config{
		URL:         DefaultStreamURL,
		DialTimeout: DefaultDialTimeout,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
		Buffer:      64,
	}
}

// Client maintains a long-lived websocket subscription to the stream and
// delivers parsed messages on a channel. Malformed payloads are counted,
// debug-logged and skipped; one broken record must never abort the stream.
type Client struct {
	cfg      *Config
	log      *logrus.Entry
	messages chan *Message
}

// NewClient builds a stream client. Run must be called exactly once.
func NewClient(cfg *Config, logger *logrus.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultStreamURL
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = 64
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		cfg:      cfg,
		log:      logger.WithField("component", "certstream"),
		messages: make(chan *Message, cfg.Buffer),
	}
}

// Messages returns the channel parsed stream messages are delivered on.
// The channel is closed when Run returns.
func (c *Client) Messages() <-chan *Message {
	return c.messages
}

// Run connects to the stream endpoint and consumes it until ctx is cancelled,
// reconnecting on connection loss with jittered exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.messages)

	backoff := c.cfg.BackoffBase
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dialer := &websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
		conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WithError(err).Warnf("Handshake with %s failed, retrying in %v", c.cfg.URL, backoff)
			if metrics.IsMetricsEnabled() {
				metrics.GetMetrics().StreamReconnects.Inc()
			}
			if !sleepCtx(ctx, jitter(backoff)) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, c.cfg.BackoffMax)
			continue
		}

		c.log.Infof("Connected to %s, fetching certificates...", c.cfg.URL)
		err = c.readLoop(ctx, conn, &backoff)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.log.WithError(err).Warnf("Stream closed, reconnecting in %v", backoff)
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().StreamReconnects.Inc()
		}
		if !sleepCtx(ctx, jitter(backoff)) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, c.cfg.BackoffMax)
	}
}

// readLoop drains one websocket connection. Returns the read error that ended
// the connection. Resets the caller's backoff once the connection proves
// healthy by yielding a message.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, backoff *time.Duration) error {
	// ReadMessage has no context support; closing the connection from a
	// watcher goroutine is the documented way to unblock it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		*backoff = c.cfg.BackoffBase

		msg, err := ParseMessage(payload)
		if err != nil {
			if metrics.IsMetricsEnabled() {
				metrics.GetMetrics().StreamParseFailures.Inc()
			}
			c.log.WithError(err).Debug("Skipping malformed stream payload")
			continue
		}
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().StreamMessagesTotal.WithLabelValues(msg.Kind().String()).Inc()
		}

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// jitter adds up to backoffJitterCeiling of random slack so reconnecting
// consumers don't stampede the aggregator in lockstep.
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(backoffJitterCeiling)))
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

// sleepCtx sleeps for d or until ctx is done; reports whether the full sleep
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
