// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport moves encoded frames between stations over a message
// broker.
package transport

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/relabs-tech/geonet_beacon/internal/config"
)

// Handler receives one message payload. The slice is owned by the handler.
type Handler func(payload []byte)

// Bus publishes and subscribes raw payloads by topic.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, h Handler) error
	Close()
}

// ClientID builds a broker client id unique to this process.
func ClientID(prefix, role string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, role, uuid.NewString()[:8])
}

// Connect opens the bus selected by cfg.Transport.
func Connect(cfg *config.Config, role string, logger *slog.Logger) (Bus, error) {
	clientID := ClientID(cfg.ClientIDPrefix, role)
	switch cfg.Transport {
	case "mqtt":
		return ConnectMQTT(cfg.MQTTBroker, clientID, logger)
	case "nats":
		return ConnectNATS(cfg.NATSURL, clientID, logger)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
