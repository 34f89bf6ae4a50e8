// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes Prometheus instrumentation for the beacon
// services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

// Direction labels.
const (
	DirectionTx = "tx"
	DirectionRx = "rx"
)

// BeaconMetrics tracks SHB frames and the link metrics they carry.
//
// Methods handle a nil receiver, so a nil *BeaconMetrics is a no-op.
type BeaconMetrics struct {
	// Frames counts SHB frames.
	// Labels: direction=[tx, rx], result=[ok, error]
	Frames *prometheus.CounterVec

	// CBR is the last channel busy ratio carried in a frame.
	// Labels: direction=[tx, rx], hop=[0, 1]
	CBR *prometheus.GaugeVec

	// TxPower is the last encoded tx power field.
	// Labels: direction=[tx, rx]
	TxPower *prometheus.GaugeVec

	// Neighbors is the current neighbor table size.
	Neighbors prometheus.Gauge
}

// NewBeaconMetrics creates and registers the collectors. If registerer is
// nil, prometheus.DefaultRegisterer is used.
func NewBeaconMetrics(registerer prometheus.Registerer) *BeaconMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &BeaconMetrics{
		Frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_shb_frames_total",
				Help: "Total SHB frames by direction and result",
			},
			[]string{"direction", "result"},
		),
		CBR: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geonet_shb_cbr_ratio",
				Help: "Last channel busy ratio carried in an SHB frame",
			},
			[]string{"direction", "hop"},
		),
		TxPower: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geonet_shb_tx_power",
				Help: "Last tx power field carried in an SHB frame",
			},
			[]string{"direction"},
		),
		Neighbors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geonet_neighbors",
				Help: "Current number of neighbors in the table",
			},
		),
	}

	registerer.MustRegister(m.Frames, m.CBR, m.TxPower, m.Neighbors)
	return m
}

// ObserveEncoded records a transmitted frame. m may be nil when no link
// metrics were attached.
func (b *BeaconMetrics) ObserveEncoded(m *geonet.LinkMetrics) {
	if b == nil {
		return
	}
	b.Frames.WithLabelValues(DirectionTx, "ok").Inc()
	if m == nil {
		return
	}
	b.CBR.WithLabelValues(DirectionTx, "0").Set(geonet.DecodeCBR(geonet.EncodeCBR(m.CBRHop0)))
	b.CBR.WithLabelValues(DirectionTx, "1").Set(geonet.DecodeCBR(geonet.EncodeCBRUnclamped(m.CBRHop1)))
	if m.HasTxPower {
		b.TxPower.WithLabelValues(DirectionTx).Set(float64(geonet.EncodeTxPower(m.TxPower)))
	}
}

func (b *BeaconMetrics) ObserveDecoded(h geonet.SHBHeader) {
	if b == nil {
		return
	}
	b.Frames.WithLabelValues(DirectionRx, "ok").Inc()
	if !h.HasLinkMetrics() {
		return
	}
	b.CBR.WithLabelValues(DirectionRx, "0").Set(h.CBRHop0)
	b.CBR.WithLabelValues(DirectionRx, "1").Set(h.CBRHop1)
	b.TxPower.WithLabelValues(DirectionRx).Set(float64(h.TxPower))
}

func (b *BeaconMetrics) ObserveError(direction string) {
	if b == nil {
		return
	}
	b.Frames.WithLabelValues(direction, "error").Inc()
}

func (b *BeaconMetrics) SetNeighbors(n int) {
	if b == nil {
		return
	}
	b.Neighbors.Set(float64(n))
}
