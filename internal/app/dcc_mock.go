// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/geonet_beacon/internal/config"
	"github.com/relabs-tech/geonet_beacon/internal/dcc"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/transport"
)

// RunMockDCC publishes synthetic channel-load samples on the DCC topic,
// standing in for the congestion-control side of a real radio.
func RunMockDCC(ctx context.Context, cfg *config.Config, logger *slog.Logger, _ *metrics.BeaconMetrics) error {
	if cfg.TopicDCC == "" {
		return fmt.Errorf("TOPIC_DCC is empty")
	}

	bus, err := transport.Connect(cfg, "dcc-mock", logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	sampler := dcc.NewMockSampler(30 * time.Second)
	ticker := time.NewTicker(cfg.BeaconInterval())
	defer ticker.Stop()

	logger.Info("publishing mock DCC samples", "topic", cfg.TopicDCC)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			payload, err := json.Marshal(sampler.Next())
			if err != nil {
				logger.Error("json marshal error", "error", err)
				continue
			}
			if err := bus.Publish(cfg.TopicDCC, payload); err != nil {
				logger.Warn("publish DCC sample", "error", err)
			}
		}
	}
}
