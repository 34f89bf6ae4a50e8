// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dcc tracks the latest channel busy ratios and transmit power
// reported by the congestion-control and radio side of the station.
package dcc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

// Sample is one report from the channel-access / PHY side, as published on
// the DCC topic.
type Sample struct {
	CBRHop0 float64 `json:"cbr_hop0"`
	CBRHop1 float64 `json:"cbr_hop1"`

	// TxPowerDBm is omitted when the radio does not report it.
	TxPowerDBm *float64 `json:"tx_power_dbm,omitempty"`
}

// ParseSample decodes a JSON sample.
func ParseSample(payload []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return Sample{}, fmt.Errorf("dcc sample: %w", err)
	}
	return s, nil
}

// Monitor holds the most recent sample. It is safe for concurrent use.
type Monitor struct {
	mu     sync.RWMutex
	last   Sample
	at     time.Time
	have   bool
	maxAge time.Duration
	now    func() time.Time
}

// NewMonitor returns a monitor whose samples expire after maxAge.
// maxAge <= 0 keeps samples forever.
func NewMonitor(maxAge time.Duration) *Monitor {
	return &Monitor{maxAge: maxAge, now: time.Now}
}

// Update stores s as the latest sample. It is a no-op on a nil monitor.
func (m *Monitor) Update(s Sample) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = s
	m.at = m.now()
	m.have = true
}

// Latest returns the current sample and whether it is fresh. A nil monitor
// never has a fresh sample.
func (m *Monitor) Latest() (Sample, bool) {
	if m == nil {
		return Sample{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.have {
		return Sample{}, false
	}
	if m.maxAge > 0 && m.now().Sub(m.at) > m.maxAge {
		return Sample{}, false
	}
	return m.last, true
}

// Reading captures the latest sample once.
func (m *Monitor) Reading() Reading {
	s, ok := m.Latest()
	return Reading{sample: s, fresh: ok}
}

// Metrics builds the extension input for one header from a single reading.
// It returns nil when no fresh sample exists, which encodes as the
// all-zero extension block.
func (m *Monitor) Metrics() *geonet.LinkMetrics {
	r := m.Reading()
	return geonet.SnapshotMetrics(r.Channel(), r.PHY())
}

// Reading is one captured sample. It serves as both the channel-load and
// the tx power collaborator of an encode, so every extension field comes
// from the same sample.
type Reading struct {
	sample Sample
	fresh  bool
}

func (r Reading) CBRHop0() float64 { return r.sample.CBRHop0 }

func (r Reading) CBRHop1() float64 { return r.sample.CBRHop1 }

func (r Reading) TxPowerEnd() float64 {
	if r.sample.TxPowerDBm == nil {
		return 0
	}
	return *r.sample.TxPowerDBm
}

// Channel returns the reading as a channel-load source, or nil when no
// fresh sample was captured.
func (r Reading) Channel() geonet.ChannelLoadSource {
	if !r.fresh {
		return nil
	}
	return r
}

// PHY returns the reading as a tx power source, or nil when the sample is
// stale or carries no tx power.
func (r Reading) PHY() geonet.TxPowerSource {
	if !r.fresh || r.sample.TxPowerDBm == nil {
		return nil
	}
	return r
}
