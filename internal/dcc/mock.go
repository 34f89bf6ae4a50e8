// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dcc

import (
	"math"
	"time"
)

// MockSampler produces a slowly oscillating channel load for bench setups
// without a radio.
type MockSampler struct {
	start  time.Time
	period time.Duration
	now    func() time.Time
}

func NewMockSampler(period time.Duration) *MockSampler {
	return &MockSampler{start: time.Now(), period: period, now: time.Now}
}

// Next returns CBR hop 0 in [0.1, 0.7], hop 1 trailing it at 80%, and a tx
// power that backs off from 23 dBm as the channel fills.
func (m *MockSampler) Next() Sample {
	phase := 2 * math.Pi * float64(m.now().Sub(m.start)) / float64(m.period)
	cbr0 := 0.4 + 0.3*math.Sin(phase)
	tx := 23 - 20*cbr0
	return Sample{
		CBRHop0:    cbr0,
		CBRHop1:    0.8 * cbr0,
		TxPowerDBm: &tx,
	}
}
