// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geonet

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("00:11:22:33:44:55:66:77")
	require.NoError(t, err)
	assert.Equal(t, Address{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}, a)
	assert.Equal(t, "00:11:22:33:44:55:66:77", a.String())

	for _, bad := range []string{"", "00:11:22:33:44:55", "zz:11:22:33:44:55:66:77"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewAddressSubFields(t *testing.T) {
	mid, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)

	a, err := NewAddress(true, StationPassengerCar, mid)
	require.NoError(t, err)

	assert.True(t, a.Manual())
	assert.Equal(t, StationPassengerCar, a.StationType())
	assert.Equal(t, mid, a.MID())
	assert.Equal(t, byte(0x94), a[0]) // 1 00101 00
	assert.Equal(t, byte(0x00), a[1])

	_, err = NewAddress(false, StationBus, net.HardwareAddr{1, 2, 3})
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	a := Address{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}

	data, err := json.Marshal(map[string]Address{"src": a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"src":"00:11:22:33:44:55:66:77"}`, string(data))

	var back map[string]Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a, back["src"])
}
