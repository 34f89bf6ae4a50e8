// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/relabs-tech/geonet_beacon/internal/config"
	"github.com/relabs-tech/geonet_beacon/internal/dcc"
	"github.com/relabs-tech/geonet_beacon/internal/geonet"
	"github.com/relabs-tech/geonet_beacon/internal/gps"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/transport"
)

// Producer turns GPS fixes into SHB beacons.
type Producer struct {
	Source  gps.Source
	Address geonet.Address
	MaxHDOP float64
	Monitor *dcc.Monitor // optional; nil sends the all-zero extension
	Bus     transport.Bus
	Topic   string
	Metrics *metrics.BeaconMetrics
	Logger  *slog.Logger
}

// Beacon reads the next fix and encodes one header.
func (p *Producer) Beacon() (geonet.SHBHeader, []byte, error) {
	fix, err := p.Source.Next()
	if err != nil {
		return geonet.SHBHeader{}, nil, fmt.Errorf("read GPS fix: %w", err)
	}

	h := geonet.SHBHeader{SourcePV: fix.PositionVector(p.Address, p.MaxHDOP)}

	lm := p.Monitor.Metrics()
	frame := geonet.Marshal(h, lm)
	p.Metrics.ObserveEncoded(lm)
	return h, frame, nil
}

// Step encodes and publishes one beacon.
func (p *Producer) Step() error {
	h, frame, err := p.Beacon()
	if err != nil {
		p.Metrics.ObserveError(metrics.DirectionTx)
		return err
	}
	if err := p.Bus.Publish(p.Topic, frame); err != nil {
		p.Metrics.ObserveError(metrics.DirectionTx)
		return fmt.Errorf("publish beacon: %w", err)
	}
	p.Logger.Debug("published beacon", "header", h.String())
	return nil
}

// Run publishes a beacon every interval until ctx is done. With a serial
// GPS each step also waits for the next RMC sentence; a source that is an
// io.Closer is closed when ctx is done so a blocked read returns.
func (p *Producer) Run(ctx context.Context, interval time.Duration) error {
	if c, ok := p.Source.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() {
			if err := c.Close(); err != nil {
				p.Logger.Debug("close GPS source", "error", err)
			}
		})
		defer stop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Step(); err != nil {
				p.Logger.Warn("beacon step failed", "error", err)
			}
		}
	}
}

// RunBeaconProducer wires GPS, DCC monitor and transport from cfg and
// publishes beacons until ctx is cancelled.
func RunBeaconProducer(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.BeaconMetrics) error {
	addr, err := geonet.ParseAddress(cfg.GNAddress)
	if err != nil {
		return err
	}

	var src gps.Source
	if cfg.UseMockGPS {
		logger.Info("using mock GPS source")
		src = gps.NewMockSource(45.0703, 7.6869)
	} else {
		serialSrc, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			return err
		}
		defer serialSrc.Close()
		logger.Info("GPS serial port opened", "port", cfg.GPSSerialPort, "baud", cfg.GPSBaudRate)
		src = serialSrc
	}

	bus, err := transport.Connect(cfg, "producer", logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	monitor := dcc.NewMonitor(cfg.DCCMaxAge())
	if cfg.TopicDCC != "" {
		if err := bus.Subscribe(cfg.TopicDCC, func(payload []byte) {
			s, err := dcc.ParseSample(payload)
			if err != nil {
				logger.Warn("bad DCC sample", "error", err)
				return
			}
			monitor.Update(s)
		}); err != nil {
			return err
		}
	}

	p := &Producer{
		Source:  src,
		Address: addr,
		MaxHDOP: cfg.AccuracyHDOP,
		Monitor: monitor,
		Bus:     bus,
		Topic:   cfg.TopicBeacon,
		Metrics: m,
		Logger:  logger,
	}

	logger.Info("starting beacon loop", "address", addr.String(), "interval", cfg.BeaconInterval(), "topic", cfg.TopicBeacon)
	return p.Run(ctx, cfg.BeaconInterval())
}
