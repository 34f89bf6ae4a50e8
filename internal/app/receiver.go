// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log/slog"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/neighbors"
)

// Receiver decodes beacon frames into the neighbor table.
type Receiver struct {
	Table   *neighbors.Table
	Metrics *metrics.BeaconMetrics
	Logger  *slog.Logger

	// OnEntry, if set, is called after every successful decode.
	OnEntry func(neighbors.Entry)
}

// Handle is a transport.Handler.
func (r *Receiver) Handle(payload []byte) {
	h, err := geonet.Unmarshal(payload)
	if err != nil {
		r.Metrics.ObserveError(metrics.DirectionRx)
		r.Logger.Warn("dropping beacon", "error", err, "size", len(payload))
		return
	}
	r.Metrics.ObserveDecoded(h)

	e := r.Table.Update(h)
	r.Metrics.SetNeighbors(r.Table.Len())
	if r.OnEntry != nil {
		r.OnEntry(e)
	}
}
