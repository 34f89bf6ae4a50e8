// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geonet

import (
	"math"
	"time"
)

// LongPositionVector is the sender's position/motion snapshot attached to
// a header.
type LongPositionVector struct {
	Address   Address `json:"address"`
	Timestamp uint32  `json:"timestamp"` // ms since 2004-01-01 UTC, mod 2^32
	Latitude  int32   `json:"latitude"`  // 1/10 micro-degree
	Longitude int32   `json:"longitude"` // 1/10 micro-degree

	// Speed is in 0.01 m/s. On decode it holds the packed 15-bit field,
	// see UnpackAccuracySpeed.
	Speed            int16  `json:"speed"`
	PositionAccuracy bool   `json:"position_accuracy"`
	Heading          uint16 `json:"heading"` // 0.1 degree
}

const (
	accuracyBit = 0x8000
	speedMask   = 0x7FFF
)

// PackAccuracySpeed builds the 16-bit PAI+speed field. The speed is shifted
// right (sign preserving) and doubled back, dropping its lowest bit, then
// masked to 15 bits.
func PackAccuracySpeed(accurate bool, speed int16) uint16 {
	packed := uint16((speed>>1)*2) & speedMask
	if accurate {
		packed |= accuracyBit
	}
	return packed
}

// UnpackAccuracySpeed splits the PAI+speed field. The returned speed is the
// raw low 15 bits: it is not sign-extended or rescaled, so a negative speed
// comes back as its 15-bit two's complement pattern.
func UnpackAccuracySpeed(field uint16) (accurate bool, speed int16) {
	return field>>15 == 1, int16(field & speedMask)
}

// Epoch of the GeoNetworking timestamp.
var timestampEpoch = time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC)

const timestampCycle = int64(1) << 32

// TimestampFromTime returns the GN timestamp for t. Leap seconds are ignored.
func TimestampFromTime(t time.Time) uint32 {
	return uint32(t.Sub(timestampEpoch).Milliseconds())
}

// TimeFromTimestamp resolves ts to the instant closest to ref, undoing the
// 2^32 ms wraparound.
func TimeFromTimestamp(ts uint32, ref time.Time) time.Time {
	refMs := ref.Sub(timestampEpoch).Milliseconds()
	base := refMs - refMs%timestampCycle
	if refMs < 0 && refMs%timestampCycle != 0 {
		base -= timestampCycle
	}
	ms := base + int64(ts)
	switch {
	case ms-refMs > timestampCycle/2:
		ms -= timestampCycle
	case refMs-ms > timestampCycle/2:
		ms += timestampCycle
	}
	return timestampEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// LatLonFromDegrees converts decimal degrees to 1/10 micro-degree.
func LatLonFromDegrees(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}

// DegreesFromLatLon converts 1/10 micro-degree back to decimal degrees.
func DegreesFromLatLon(v int32) float64 {
	return float64(v) / 1e7
}

// SpeedFromMetersPerSecond converts to 0.01 m/s, saturating at the int16
// limits.
func SpeedFromMetersPerSecond(mps float64) int16 {
	v := math.Round(mps * 100)
	return int16(Clamp(v, math.MinInt16, math.MaxInt16))
}

// MetersPerSecondFromSpeed converts 0.01 m/s units back to m/s.
func MetersPerSecondFromSpeed(v int16) float64 {
	return float64(v) / 100
}

// HeadingFromDegrees converts a course in degrees to 0.1 degree units in
// [0, 3600).
func HeadingFromDegrees(deg float64) uint16 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return uint16(int(math.Round(d*10)) % 3600)
}

// DegreesFromHeading converts 0.1 degree units back to degrees.
func DegreesFromHeading(v uint16) float64 {
	return float64(v) / 10
}
