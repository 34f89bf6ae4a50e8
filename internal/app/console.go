// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/relabs-tech/geonet_beacon/internal/config"
	"github.com/relabs-tech/geonet_beacon/internal/geonet"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/neighbors"
	"github.com/relabs-tech/geonet_beacon/internal/transport"
)

var neighborColumns = []string{"ADDRESS", "LAT", "LON", "SPEED m/s", "HDG", "PAI", "CBR0", "CBR1", "TXP", "AGE", "RX"}

// neighborRows renders the table as pterm table data, header first.
func neighborRows(entries []neighbors.Entry, now time.Time) pterm.TableData {
	data := pterm.TableData{neighborColumns}
	for _, e := range entries {
		pv := e.Header.SourcePV
		row := []string{
			pv.Address.String(),
			fmt.Sprintf("%.6f", geonet.DegreesFromLatLon(pv.Latitude)),
			fmt.Sprintf("%.6f", geonet.DegreesFromLatLon(pv.Longitude)),
			fmt.Sprintf("%.2f", geonet.MetersPerSecondFromSpeed(pv.Speed)),
			fmt.Sprintf("%.1f", geonet.DegreesFromHeading(pv.Heading)),
			strconv.FormatBool(pv.PositionAccuracy),
			"-", "-", "-",
			now.Sub(e.LastSeen).Round(100 * time.Millisecond).String(),
			strconv.FormatUint(e.Count, 10),
		}
		if e.Header.HasLinkMetrics() {
			row[6] = fmt.Sprintf("%.3f", e.Header.CBRHop0)
			row[7] = fmt.Sprintf("%.3f", e.Header.CBRHop1)
			row[8] = strconv.Itoa(int(e.Header.TxPower))
		}
		data = append(data, row)
	}
	return data
}

// RunConsole prints every received beacon and redraws the neighbor table
// once per refresh interval.
func RunConsole(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.BeaconMetrics) error {
	bus, err := transport.Connect(cfg, "console", logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	table := neighbors.NewTable()
	rx := &Receiver{
		Table:   table,
		Metrics: m,
		Logger:  logger,
		OnEntry: func(e neighbors.Entry) {
			pterm.Info.Println(e.Header.String())
		},
	}
	if err := bus.Subscribe(cfg.TopicBeacon, rx.Handle); err != nil {
		return err
	}
	logger.Info("console subscribed", "topic", cfg.TopicBeacon)

	ticker := time.NewTicker(cfg.DisplayInterval() * 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := table.Prune(cfg.NeighborMaxAge()); n > 0 {
				m.SetNeighbors(table.Len())
			}
			entries := table.Snapshot()
			if len(entries) == 0 {
				continue
			}
			pterm.Println()
			if err := pterm.DefaultTable.WithHasHeader().WithData(neighborRows(entries, time.Now())).Render(); err != nil {
				logger.Warn("render neighbor table", "error", err)
			}
		}
	}
}
