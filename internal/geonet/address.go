// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geonet

import (
	"fmt"
	"net"
)

// AddressLen is the size of a GeoNetworking address on the wire.
const AddressLen = 8

// StationType is the 5-bit ITS station type carried in the GN address.
type StationType uint8

const (
	StationUnknown        StationType = 0
	StationPedestrian     StationType = 1
	StationCyclist        StationType = 2
	StationMoped          StationType = 3
	StationMotorcycle     StationType = 4
	StationPassengerCar   StationType = 5
	StationBus            StationType = 6
	StationLightTruck     StationType = 7
	StationHeavyTruck     StationType = 8
	StationTrailer        StationType = 9
	StationSpecialVehicle StationType = 10
	StationTram           StationType = 11
	StationRoadSideUnit   StationType = 15
)

// Address is a GeoNetworking address:
//
//	bit 63      M   manually configured
//	bits 62-58  ST  station type
//	bits 57-48  reserved
//	bits 47-0   MID link-layer address
//
// It is carried byte-for-byte in headers.
type Address [AddressLen]byte

// NewAddress builds an address from its sub-fields. Only the low 5 bits of
// st are used.
func NewAddress(manual bool, st StationType, mid net.HardwareAddr) (Address, error) {
	var a Address
	if len(mid) != 6 {
		return a, fmt.Errorf("geonet: MID must be a 48-bit MAC, got %d bytes", len(mid))
	}
	if manual {
		a[0] = 0x80
	}
	a[0] |= (uint8(st) & 0x1F) << 2
	copy(a[2:], mid)
	return a, nil
}

// ParseAddress parses the colon separated form produced by String,
// e.g. "00:11:22:33:44:55:66:77".
func ParseAddress(s string) (Address, error) {
	var a Address
	hw, err := net.ParseMAC(s)
	if err != nil {
		return a, fmt.Errorf("geonet: parse address %q: %w", s, err)
	}
	if len(hw) != AddressLen {
		return a, fmt.Errorf("geonet: address %q is %d bytes, want %d", s, len(hw), AddressLen)
	}
	copy(a[:], hw)
	return a, nil
}

func (a Address) Manual() bool { return a[0]&0x80 != 0 }

func (a Address) StationType() StationType { return StationType((a[0] >> 2) & 0x1F) }

// MID returns the 48-bit link-layer part.
func (a Address) MID() net.HardwareAddr {
	mid := make(net.HardwareAddr, 6)
	copy(mid, a[2:])
	return mid
}

func (a Address) String() string {
	return net.HardwareAddr(a[:]).String()
}

// MarshalText lets addresses be used as JSON object keys and values.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
