// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"io"
	"strings"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

const (
	rmcValid    = "$GPRMC,093000,A,4807.038,N,01131.000,E,022.4,084.4,151026,003.1,W*63"
	rmcVoid     = "$GPRMC,093001,V,4807.038,N,01131.000,E,000.0,000.0,151026,003.1,W*79"
	ggaGood     = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	ggaNoFix    = "$GPGGA,123520,4807.038,N,01131.000,E,0,00,99.9,545.4,M,46.9,M,,*74"
	badChecksum = "$GPRMC,093000,A,4807.038,N,01131.000,E,022.4,084.4,151026,003.1,W*00"
)

func TestReaderMergesGGAIntoRMC(t *testing.T) {
	stream := strings.Join([]string{
		"garbage line",
		ggaGood,
		badChecksum,
		rmcValid,
	}, "\r\n") + "\r\n"

	r := NewReader(strings.NewReader(stream))
	fix, err := r.Next()
	require.NoError(t, err)

	assert.True(t, fix.Valid())
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-9)
	assert.InDelta(t, 11.516666, fix.Longitude, 1e-6)
	assert.InDelta(t, 22.4, fix.SpeedKnots, 1e-9)
	assert.InDelta(t, 84.4, fix.CourseDeg, 1e-9)
	assert.Equal(t, 0.9, fix.HDOP)
	assert.Equal(t, int64(8), fix.Satellites)
	assert.Equal(t, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC), fix.At)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderLastLineWithoutNewline(t *testing.T) {
	r := NewReader(strings.NewReader(rmcVoid))
	fix, err := r.Next()
	require.NoError(t, err)
	assert.False(t, fix.Valid())
}

func TestPositionVectorFromFix(t *testing.T) {
	addr, err := geonet.ParseAddress("94:00:de:ad:be:ef:00:01")
	require.NoError(t, err)

	r := NewReader(strings.NewReader(ggaGood + "\n" + rmcValid + "\n"))
	fix, err := r.Next()
	require.NoError(t, err)

	pv := fix.PositionVector(addr, 2.0)
	assert.Equal(t, addr, pv.Address)
	assert.Equal(t, int32(481173000), pv.Latitude)
	assert.Equal(t, int32(115166667), pv.Longitude)
	assert.Equal(t, int16(1152), pv.Speed)
	assert.Equal(t, uint16(844), pv.Heading)
	assert.True(t, pv.PositionAccuracy)
	assert.Equal(t, geonet.TimestampFromTime(fix.At), pv.Timestamp)

	// The vector survives the SHB codec unchanged apart from the speed bit.
	decoded, err := geonet.Unmarshal(geonet.Marshal(geonet.SHBHeader{SourcePV: pv}, nil))
	require.NoError(t, err)
	assert.Equal(t, pv.Latitude, decoded.SourcePV.Latitude)
	assert.Equal(t, pv.Longitude, decoded.SourcePV.Longitude)
	assert.Equal(t, int16(1152), decoded.SourcePV.Speed)
}

func TestAccuracyFlag(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		max   float64
		want  bool
	}{
		{"good HDOP", []string{ggaGood, rmcValid}, 2.0, true},
		{"HDOP above threshold", []string{ggaGood, rmcValid}, 0.5, false},
		{"no GGA seen", []string{rmcValid}, 2.0, false},
		{"GGA without fix", []string{ggaNoFix, rmcValid}, 200, false},
		{"void RMC", []string{ggaGood, rmcVoid}, 2.0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(strings.Join(tc.lines, "\n") + "\n"))
			fix, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, tc.want, fix.PositionVector(geonet.Address{}, tc.max).PositionAccuracy)
		})
	}
}

func TestTrackerFallsBackToClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := Tracker{Now: func() time.Time { return fixed }}

	// RMC without date and time.
	fix, done := tr.Apply(nmea.RMC{
		BaseSentence: nmea.BaseSentence{Talker: "GP", Type: nmea.TypeRMC},
		Validity:     nmea.InvalidRMC,
	})
	assert.True(t, done)
	assert.Equal(t, fixed, fix.At)
}

func TestMockSource(t *testing.T) {
	src := NewMockSource(45.0, 7.0)
	for i := 0; i < 3; i++ {
		fix, err := src.Next()
		require.NoError(t, err)
		assert.True(t, fix.Valid())
		assert.InDelta(t, 45.0, fix.Latitude, 0.002)
		assert.InDelta(t, 7.0, fix.Longitude, 0.002)
		assert.GreaterOrEqual(t, fix.CourseDeg, 0.0)
		assert.Less(t, fix.CourseDeg, 360.0)
		assert.InDelta(t, 10.0, fix.SpeedKnots*metersPerSecondPerKnot, 1e-9)
	}
}

// pipePort stands in for a UART: reads block until data arrives or the port
// is closed.
type pipePort struct {
	*io.PipeReader
	closes int
}

func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *pipePort) Close() error {
	p.closes++
	return p.PipeReader.Close()
}

func TestSerialSourceCloseUnblocksNext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	port := &pipePort{PipeReader: pr}
	src := newSerialSource(port)

	done := make(chan error, 1)
	go func() {
		_, err := src.Next()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, src.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}

	require.NoError(t, src.Close())
	assert.Equal(t, 1, port.closes)
}
