// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// drainTimeout bounds how long Close waits for buffered publishes to flush.
const drainTimeout = 5 * time.Second

type natsBus struct {
	conn   *nats.Conn
	closed <-chan struct{}
	logger *slog.Logger
}

// ConnectNATS connects to a NATS server, e.g. nats://localhost:4222.
// MQTT style topics ("geonet/shb") are mapped to NATS subjects ("geonet.shb").
func ConnectNATS(url, clientID string, logger *slog.Logger) (Bus, error) {
	closed := make(chan struct{})
	options := []nats.Option{
		nats.Name(clientID),
		nats.DrainTimeout(drainTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection permanently closed")
			close(closed)
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("NATS connect %s: %w", url, err)
	}
	logger.Info("connected to NATS", "url", url, "client_id", clientID)

	return &natsBus{conn: nc, closed: closed, logger: logger}, nil
}

// Subject maps an MQTT topic filter to a NATS subject.
func Subject(topic string) string {
	s := strings.ReplaceAll(topic, "/", ".")
	s = strings.ReplaceAll(s, "+", "*")
	if strings.HasSuffix(s, "#") {
		s = strings.TrimSuffix(s, "#") + ">"
	}
	return s
}

func (b *natsBus) Publish(topic string, payload []byte) error {
	return b.conn.Publish(Subject(topic), payload)
}

func (b *natsBus) Subscribe(topic string, h Handler) error {
	subject := Subject(topic)
	if _, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		h(msg.Data)
	}); err != nil {
		return fmt.Errorf("NATS subscribe %s: %w", subject, err)
	}
	b.logger.Info("subscribed", "subject", subject)
	return nil
}

// Close drains the connection and waits until it is closed, so beacons
// published just before shutdown still reach the server.
func (b *natsBus) Close() {
	closeDrained(b.conn, b.closed, drainTimeout+time.Second, b.logger)
}

type drainCloser interface {
	Drain() error
	Close()
}

// closeDrained starts a drain and blocks until closed fires. If the drain
// cannot start or does not finish within timeout the connection is closed
// outright.
func closeDrained(c drainCloser, closed <-chan struct{}, timeout time.Duration, logger *slog.Logger) {
	if err := c.Drain(); err != nil {
		logger.Warn("NATS drain failed", "error", err)
		c.Close()
		return
	}
	select {
	case <-closed:
	case <-time.After(timeout):
		logger.Warn("NATS drain timed out", "timeout", timeout)
		c.Close()
	}
}
