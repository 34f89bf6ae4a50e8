// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geonet

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedPackingLaw(t *testing.T) {
	// Every int16 speed decodes to ((speed >> 1) * 2) & 0x7FFF.
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		speed := int16(v)
		want := int16(uint16((speed>>1)*2) & 0x7FFF)

		for _, acc := range []bool{false, true} {
			gotAcc, gotSpeed := UnpackAccuracySpeed(PackAccuracySpeed(acc, speed))
			if gotSpeed != want || gotAcc != acc {
				t.Fatalf("speed %d acc %t: got (%t, %d), want (%t, %d)", speed, acc, gotAcc, gotSpeed, acc, want)
			}
		}
	}
}

func TestSpeedPackingExamples(t *testing.T) {
	testCases := []struct {
		name   string
		acc    bool
		speed  int16
		packed uint16
		out    int16
	}{
		{"even positive", true, 40, 0x8028, 40},
		{"odd positive loses low bit", false, 41, 0x0028, 40},
		{"zero", false, 0, 0x0000, 0},
		{"max", false, math.MaxInt16, 0x7FFE, 32766},
		{"minus one", false, -1, 0x7FFE, 32766},
		{"minus three", true, -3, 0xFFFC, 32764},
		{"min", false, math.MinInt16, 0x0000, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			packed := PackAccuracySpeed(tc.acc, tc.speed)
			assert.Equal(t, tc.packed, packed)

			acc, out := UnpackAccuracySpeed(packed)
			assert.Equal(t, tc.acc, acc)
			assert.Equal(t, tc.out, out)
		})
	}
}

func TestDecodedSpeedIsPackedField(t *testing.T) {
	speed := int16(-200)
	h := SHBHeader{SourcePV: LongPositionVector{Speed: speed}}
	decoded, err := Unmarshal(Marshal(h, nil))
	require.NoError(t, err)

	// Not -200: decode keeps the raw 15-bit pattern.
	assert.Equal(t, int16(uint16(speed)&0x7FFF), decoded.SourcePV.Speed)
	assert.Positive(t, decoded.SourcePV.Speed)
}

func TestTimestamp(t *testing.T) {
	t.Run("Epoch", func(t *testing.T) {
		epoch := time.Date(2004, 1, 1, 0, 0, 1, 0, time.UTC)
		assert.Equal(t, uint32(1000), TimestampFromTime(epoch))
	})

	t.Run("WrapsModulo32Bits", func(t *testing.T) {
		wrapped := timestampEpoch.Add(time.Duration(timestampCycle+5) * time.Millisecond)
		assert.Equal(t, uint32(5), TimestampFromTime(wrapped))
	})

	t.Run("ResolvesAgainstReference", func(t *testing.T) {
		now := time.Date(2026, 10, 15, 9, 30, 0, 123_000_000, time.UTC)
		ts := TimestampFromTime(now)

		assert.True(t, now.Equal(TimeFromTimestamp(ts, now)))
		assert.True(t, now.Equal(TimeFromTimestamp(ts, now.Add(3*time.Second))))
		assert.True(t, now.Equal(TimeFromTimestamp(ts, now.Add(-3*time.Second))))
	})

	t.Run("ResolvesAcrossWrap", func(t *testing.T) {
		justBefore := timestampEpoch.Add(time.Duration(timestampCycle-10) * time.Millisecond)
		justAfter := timestampEpoch.Add(time.Duration(timestampCycle+10) * time.Millisecond)

		assert.True(t, justBefore.Equal(TimeFromTimestamp(TimestampFromTime(justBefore), justAfter)))
		assert.True(t, justAfter.Equal(TimeFromTimestamp(TimestampFromTime(justAfter), justBefore)))
	})
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, int32(485_000_000), LatLonFromDegrees(48.5))
	assert.Equal(t, int32(-1_223_456_789), LatLonFromDegrees(-122.3456789))
	assert.InDelta(t, -122.3456789, DegreesFromLatLon(-1_223_456_789), 1e-9)

	assert.Equal(t, int16(1389), SpeedFromMetersPerSecond(13.89))
	assert.Equal(t, int16(math.MaxInt16), SpeedFromMetersPerSecond(1000))
	assert.Equal(t, int16(math.MinInt16), SpeedFromMetersPerSecond(-1000))
	assert.InDelta(t, 13.89, MetersPerSecondFromSpeed(1389), 1e-9)

	assert.Equal(t, uint16(900), HeadingFromDegrees(90))
	assert.Equal(t, uint16(3599), HeadingFromDegrees(359.9))
	assert.Equal(t, uint16(0), HeadingFromDegrees(359.96))
	assert.Equal(t, uint16(2700), HeadingFromDegrees(-90))
	assert.Equal(t, uint16(100), HeadingFromDegrees(370))
	assert.InDelta(t, 90.0, DegreesFromHeading(900), 1e-9)
}
