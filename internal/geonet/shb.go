// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geonet implements the GeoNetworking Single-Hop-Broadcast header
// (EN 302 636-4-1, 9.8.4) with the channel-load/tx-power extension block.
//
// Wire layout, all multi-byte fields big-endian:
//
//	offset size field
//	0      8    source GN address
//	8      4    timestamp
//	12     4    latitude
//	16     4    longitude
//	20     2    PAI (bit 15) + speed (bits 0-14)
//	22     2    heading
//	24     1    CBR hop 0, floor(clamp(r,0,1)*255)
//	25     1    CBR hop 1, floor(r*255) truncated to 8 bits
//	26     1    tx power, bits 0-4; bits 5-7 zero
//	27     1    reserved, zero
package geonet

import (
	"fmt"

	"github.com/relabs-tech/geonet_beacon/internal/buffer"
)

// SHBHeaderSize is the serialized size of every SHB header.
const SHBHeaderSize = 28

// SHBHeader is one Single-Hop-Broadcast header. The CBR and TxPower fields
// are filled by Decode; Encode takes its extension inputs separately.
type SHBHeader struct {
	SourcePV LongPositionVector `json:"source_pv"`

	CBRHop0 float64 `json:"cbr_hop0"`
	CBRHop1 float64 `json:"cbr_hop1"`
	TxPower uint8   `json:"tx_power"`
}

// SerializedSize is always SHBHeaderSize.
func SerializedSize() uint32 {
	return SHBHeaderSize
}

// HasLinkMetrics reports whether the decoded extension block carried any
// data. An all-zero block means no extension was sent.
func (h SHBHeader) HasLinkMetrics() bool {
	return h.CBRHop0 != 0 || h.CBRHop1 != 0 || h.TxPower != 0
}

func (h SHBHeader) String() string {
	pv := h.SourcePV
	return fmt.Sprintf("SHB src=%s tst=%d lat=%d lon=%d pai=%t speed=%d heading=%d cbr0=%.3f cbr1=%.3f txp=%d",
		pv.Address, pv.Timestamp, pv.Latitude, pv.Longitude, pv.PositionAccuracy, pv.Speed, pv.Heading,
		h.CBRHop0, h.CBRHop1, h.TxPower)
}

// reserve checks that a whole header fits before any byte is touched, so a
// failed call leaves both the buffer and the cursor as they were.
func reserve(it *buffer.Iterator) error {
	if err := it.Err(); err != nil {
		return err
	}
	if it.Remaining() < SHBHeaderSize {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			buffer.ErrShortBuffer, SHBHeaderSize, it.Offset(), it.Remaining())
	}
	return nil
}

// Encode writes h at the iterator position and advances it by
// SHBHeaderSize. Numeric inputs are clamped, never rejected; the only error
// is a short buffer, in which case nothing is written.
func Encode(it *buffer.Iterator, h SHBHeader, m *LinkMetrics) error {
	if err := reserve(it); err != nil {
		return fmt.Errorf("encode SHB header: %w", err)
	}
	pv := h.SourcePV

	it.Write(pv.Address[:])
	it.WriteHtonU32(pv.Timestamp)
	it.WriteHtonU32(uint32(pv.Latitude))
	it.WriteHtonU32(uint32(pv.Longitude))
	it.WriteHtonU16(PackAccuracySpeed(pv.PositionAccuracy, pv.Speed))
	it.WriteHtonU16(pv.Heading)

	if m == nil {
		it.WriteHtonU32(0)
	} else {
		var txp uint8
		if m.HasTxPower {
			txp = EncodeTxPower(m.TxPower)
		}
		it.WriteU8(EncodeCBR(m.CBRHop0))
		it.WriteU8(EncodeCBRUnclamped(m.CBRHop1))
		it.WriteU8(txp)
		it.WriteU8(0)
	}

	if err := it.Err(); err != nil {
		return fmt.Errorf("encode SHB header: %w", err)
	}
	return nil
}

// Decode reads one header and returns it with the number of bytes consumed.
// At least SHBHeaderSize bytes must be available; otherwise the iterator's
// short-buffer error is returned.
func Decode(it *buffer.Iterator) (SHBHeader, uint32, error) {
	if err := reserve(it); err != nil {
		return SHBHeader{}, 0, fmt.Errorf("decode SHB header: %w", err)
	}
	var h SHBHeader
	pv := &h.SourcePV

	it.ReadInto(pv.Address[:])
	pv.Timestamp = it.ReadNtohU32()
	pv.Latitude = int32(it.ReadNtohU32())
	pv.Longitude = int32(it.ReadNtohU32())
	pv.PositionAccuracy, pv.Speed = UnpackAccuracySpeed(it.ReadNtohU16())
	pv.Heading = it.ReadNtohU16()

	h.CBRHop0 = DecodeCBR(it.ReadU8())
	h.CBRHop1 = DecodeCBR(it.ReadU8())
	h.TxPower = DecodeTxPower(it.ReadU8())
	_ = it.ReadU8() // reserved

	if err := it.Err(); err != nil {
		return SHBHeader{}, 0, fmt.Errorf("decode SHB header: %w", err)
	}
	return h, SHBHeaderSize, nil
}

// Marshal encodes h into a fresh SHBHeaderSize slice.
func Marshal(h SHBHeader, m *LinkMetrics) []byte {
	buf := make([]byte, SHBHeaderSize)
	// Cannot fail: the buffer is exactly the header size.
	_ = Encode(buffer.NewIterator(buf), h, m)
	return buf
}

// Unmarshal decodes the header at the start of data. Trailing bytes are
// left for the caller.
func Unmarshal(data []byte) (SHBHeader, error) {
	h, _, err := Decode(buffer.NewIterator(data))
	return h, err
}
