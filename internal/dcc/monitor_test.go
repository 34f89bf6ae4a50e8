// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dcc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestMonitor(maxAge time.Duration) (*Monitor, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	m := NewMonitor(maxAge)
	m.now = clock.now
	return m, clock
}

func TestParseSample(t *testing.T) {
	s, err := ParseSample([]byte(`{"cbr_hop0":0.5,"cbr_hop1":0.8,"tx_power_dbm":20}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.CBRHop0)
	assert.Equal(t, 0.8, s.CBRHop1)
	require.NotNil(t, s.TxPowerDBm)
	assert.Equal(t, 20.0, *s.TxPowerDBm)

	s, err = ParseSample([]byte(`{"cbr_hop0":0.1,"cbr_hop1":0.2}`))
	require.NoError(t, err)
	assert.Nil(t, s.TxPowerDBm)

	_, err = ParseSample([]byte(`not json`))
	assert.Error(t, err)
}

func TestMonitorWithoutSample(t *testing.T) {
	m, _ := newTestMonitor(time.Second)
	assert.Nil(t, m.Metrics())

	wire := geonet.Marshal(geonet.SHBHeader{}, m.Metrics())
	assert.Equal(t, []byte{0, 0, 0, 0}, wire[24:28])
}

func TestMonitorMetrics(t *testing.T) {
	m, _ := newTestMonitor(time.Second)
	power := 20.0
	m.Update(Sample{CBRHop0: 0.5, CBRHop1: 0.8, TxPowerDBm: &power})

	lm := m.Metrics()
	require.NotNil(t, lm)
	assert.True(t, lm.HasTxPower)

	wire := geonet.Marshal(geonet.SHBHeader{}, lm)
	assert.Equal(t, []byte{127, 204, 20, 0}, wire[24:28])

	r := m.Reading()
	assert.Equal(t, lm, geonet.SnapshotMetrics(r.Channel(), r.PHY()))
}

func TestMonitorWithoutTxPower(t *testing.T) {
	m, _ := newTestMonitor(0)
	m.Update(Sample{CBRHop0: 0.3, CBRHop1: 0.3})

	lm := m.Metrics()
	require.NotNil(t, lm)
	assert.False(t, lm.HasTxPower)
	assert.Nil(t, m.Reading().PHY())
	assert.Equal(t, 0.0, m.Reading().TxPowerEnd())

	wire := geonet.Marshal(geonet.SHBHeader{}, lm)
	assert.Equal(t, uint8(0), wire[26])
}

func TestMonitorExpiresSamples(t *testing.T) {
	m, clock := newTestMonitor(time.Second)
	m.Update(Sample{CBRHop0: 0.4})

	clock.t = clock.t.Add(999 * time.Millisecond)
	_, fresh := m.Latest()
	assert.True(t, fresh)

	clock.t = clock.t.Add(2 * time.Millisecond)
	_, fresh = m.Latest()
	assert.False(t, fresh)
	assert.Nil(t, m.Metrics())
	assert.Nil(t, m.Reading().Channel())
}

func TestNilMonitorIsAbsentCollaborator(t *testing.T) {
	var m *Monitor

	assert.NotPanics(t, func() { m.Update(Sample{CBRHop0: 0.5}) })
	_, fresh := m.Latest()
	assert.False(t, fresh)

	r := m.Reading()
	assert.Nil(t, r.Channel())
	assert.Nil(t, r.PHY())
	assert.Nil(t, geonet.SnapshotMetrics(r.Channel(), r.PHY()))

	wire := geonet.Marshal(geonet.SHBHeader{}, m.Metrics())
	assert.Equal(t, []byte{0, 0, 0, 0}, wire[24:28])
}

func TestReadingIsStableAcrossUpdates(t *testing.T) {
	m, _ := newTestMonitor(time.Second)
	p1, p2 := 10.0, 30.0
	m.Update(Sample{CBRHop0: 0.1, CBRHop1: 0.2, TxPowerDBm: &p1})

	r := m.Reading()
	m.Update(Sample{CBRHop0: 0.9, CBRHop1: 0.8, TxPowerDBm: &p2})

	lm := geonet.SnapshotMetrics(r.Channel(), r.PHY())
	require.NotNil(t, lm)
	assert.Equal(t, 0.1, lm.CBRHop0)
	assert.Equal(t, 0.2, lm.CBRHop1)
	assert.Equal(t, 10.0, lm.TxPower)
}

func TestMonitorConcurrentAccess(t *testing.T) {
	m := NewMonitor(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Update(Sample{CBRHop0: float64(i) / 10})
		}(i)
		go func() {
			defer wg.Done()
			_ = m.Metrics()
		}()
	}
	wg.Wait()

	_, fresh := m.Latest()
	assert.True(t, fresh)
}
