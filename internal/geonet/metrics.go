// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geonet

import "math"

// TxPowerMax is the largest value the 5-bit tx power field can carry.
const TxPowerMax = 31

const txPowerMask = 0x1F

// ChannelLoadSource is the congestion-control side that measures channel
// busy ratios, each in [0, 1].
type ChannelLoadSource interface {
	CBRHop0() float64
	CBRHop1() float64
}

// TxPowerSource is the physical layer reporting its current transmit power.
type TxPowerSource interface {
	TxPowerEnd() float64
}

// LinkMetrics is the input of the 4-byte channel-load/tx-power extension.
// A nil *LinkMetrics passed to Encode produces the all-zero block.
type LinkMetrics struct {
	CBRHop0 float64 `json:"cbr_hop0"`
	CBRHop1 float64 `json:"cbr_hop1"`

	// TxPower is only encoded when HasTxPower is set; otherwise the field
	// is written as 0.
	TxPower    float64 `json:"tx_power_dbm"`
	HasTxPower bool    `json:"has_tx_power"`
}

// SnapshotMetrics reads both collaborators once. Without a channel-load
// source there is no extension and nil is returned; without a tx power
// source the power field is left at zero. An interface holding a nil
// pointer is not nil, so callers pass a nil interface for an absent
// collaborator.
func SnapshotMetrics(ch ChannelLoadSource, phy TxPowerSource) *LinkMetrics {
	if ch == nil {
		return nil
	}
	m := &LinkMetrics{
		CBRHop0: ch.CBRHop0(),
		CBRHop1: ch.CBRHop1(),
	}
	if phy != nil {
		m.TxPower = phy.TxPowerEnd()
		m.HasTxPower = true
	}
	return m
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// EncodeCBR quantizes a ratio clamped to [0, 1] into 0..255, truncating.
func EncodeCBR(r float64) uint8 {
	return uint8(math.Floor(Clamp(r, 0, 1) * 255))
}

// EncodeCBRUnclamped quantizes without clamping: floor(r*255) is truncated
// to its low 8 bits, so 1.2 encodes as 306 mod 256 = 50 and negative ratios
// wrap from 255 downwards. Used for hop 1 to stay bit compatible with
// deployed peers.
func EncodeCBRUnclamped(r float64) uint8 {
	v := math.Floor(r * 255)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m := math.Mod(v, 256)
	if m < 0 {
		m += 256
	}
	return uint8(m)
}

// DecodeCBR maps an encoded byte back to a ratio in [0, 1].
func DecodeCBR(b uint8) float64 {
	return float64(b) / 255.0
}

// EncodeTxPower rounds to the nearest integer (half away from zero) and
// clamps to [0, TxPowerMax]. The three high bits are always zero.
func EncodeTxPower(p float64) uint8 {
	return uint8(Clamp(math.Round(p), 0, TxPowerMax)) & txPowerMask
}

// DecodeTxPower ignores the three reserved high bits.
func DecodeTxPower(b uint8) uint8 {
	return b & txPowerMask
}
